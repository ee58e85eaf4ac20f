// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	auditlogfeature "github.com/nestoreco/nestor/internal/app/features/auditlog"
	contactsfeature "github.com/nestoreco/nestor/internal/app/features/contacts"
	dashboardfeature "github.com/nestoreco/nestor/internal/app/features/dashboard"
	_ "github.com/nestoreco/nestor/internal/app/features/dashboard/views"
	errorsfeature "github.com/nestoreco/nestor/internal/app/features/errors"
	healthfeature "github.com/nestoreco/nestor/internal/app/features/health"
	homefeature "github.com/nestoreco/nestor/internal/app/features/home"
	loginfeature "github.com/nestoreco/nestor/internal/app/features/login"
	logoutfeature "github.com/nestoreco/nestor/internal/app/features/logout"
	offersfeature "github.com/nestoreco/nestor/internal/app/features/offers"
	projectsfeature "github.com/nestoreco/nestor/internal/app/features/projects"
	remindersfeature "github.com/nestoreco/nestor/internal/app/features/reminders"
	settingsfeature "github.com/nestoreco/nestor/internal/app/features/settings"
	_ "github.com/nestoreco/nestor/internal/app/features/shared/views"
	systemusersfeature "github.com/nestoreco/nestor/internal/app/features/systemusers"
	webhookfeature "github.com/nestoreco/nestor/internal/app/features/webhook"
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.uber.org/zap"
)

// BuildHandler boots the template engine and returns the root router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := currentServices()
	if svc == nil {
		return nil, errors.New("bootstrap: services not initialised; Startup must run first")
	}

	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	return newRouter(appCfg, deps, svc, coreCfg.Env == "prod", logger)
}

// newRouter mounts every feature. Everything except /health, /metrics,
// /static and the Telegram webhook sits behind CSRF protection.
func newRouter(appCfg AppConfig, deps DBDeps, svc *Services, secure bool, logger *zap.Logger) (chi.Router, error) {
	db := deps.MongoDatabase

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fetch the user on every request so role and status changes apply at once.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	fl := flash.New(deriveKey(appCfg.FlashKey, appCfg.SessionKey, "flash"), secure)
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	// Machine endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, svc.Flows.Enabled(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", svc.Metrics.Handler())
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	if svc.Bot != nil {
		webhookHandler := webhookfeature.NewHandler(db, svc.Bot, svc.Flows, appCfg.TelegramSecret, svc.Metrics, logger)
		r.Mount("/webhook", webhookfeature.Routes(webhookHandler))
	} else {
		logger.Info("telegram webhook disabled")
	}

	// Browser routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware(appCfg, secure, logger)...)
		r.Use(sessionMgr.LoadSessionUser)

		r.Get("/forbidden", errorsHandler.Forbidden)

		homeHandler := homefeature.NewHandler(logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, svc.Limiter, svc.AuditLog, errLog, logger)
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.AuditLog, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Projects and their tree
		projectsHandler := projectsfeature.NewHandler(db, svc.Blobs, fl, svc.Metrics, errLog, logger)
		projectsHandler.AuditLog = svc.AuditLog
		projectsHandler.AIEnabled = svc.Flows.Enabled()
		r.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))

		remindersHandler := remindersfeature.NewHandler(db, svc.Flows, fl, svc.Metrics, errLog, logger)
		r.Mount("/reminders", remindersfeature.Routes(remindersHandler, sessionMgr))

		dashboardHandler := dashboardfeature.NewHandler(db, remindersHandler, fl, errLog, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		contactsHandler := contactsfeature.NewHandler(db, fl, svc.Metrics, errLog, logger)
		contactsHandler.AuditLog = svc.AuditLog
		r.Mount("/contacts", contactsfeature.Routes(contactsHandler, sessionMgr))

		offersHandler := offersfeature.NewHandler(db, svc.Blobs, svc.Flows, fl, svc.Metrics, errLog, logger)
		offersHandler.AuditLog = svc.AuditLog
		r.Mount("/offers", offersfeature.Routes(offersHandler, sessionMgr))

		// Administration
		settingsHandler := settingsfeature.NewHandler(db, fl, svc.AuditLog, errLog, logger)
		r.Route("/settings", func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn, sessionMgr.RequireRole(auth.RoleAdmin))
			settingsHandler.MountRoutes(r)
		})

		usersHandler := systemusersfeature.NewHandler(db, fl, errLog, svc.AuditLog, logger)
		r.Mount("/users", systemusersfeature.Routes(usersHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
		r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r, nil
}

// csrfMiddleware protects state-changing browser requests. gorilla/csrf
// assumes TLS; outside production requests are marked as plaintext so the
// Referer check does not reject http://localhost.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) []func(http.Handler) http.Handler {
	protect := csrf.Protect(
		deriveKey(appCfg.CSRFKey, appCfg.SessionKey, "csrf"),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			http.Error(w, "Forbidden - invalid or missing CSRF token", http.StatusForbidden)
		})),
	)
	if secure {
		return []func(http.Handler) http.Handler{protect}
	}
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
	return []func(http.Handler) http.Handler{plaintext, protect}
}
