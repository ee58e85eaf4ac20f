// internal/app/features/errors/render.go
package errors

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderBadRequest shows a 400 page.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusBadRequest, "Bad request", msg, backURL)
}

// RenderNotFound shows a 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// RenderServerError shows a 500 page. Callers log the cause themselves.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusInternalServerError, "Something went wrong", msg, backURL)
}

// RenderUnauthorized sends an anonymous caller to the login page.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, loginURL string) {
	if wantsPlain(r) {
		http.Error(w, "sign in required", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

func wantsPlain(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func render(w http.ResponseWriter, r *http.Request, code int, title, msg, backURL string) {
	if wantsPlain(r) {
		http.Error(w, msg, code)
		return
	}
	if backURL == "" {
		backURL = "/"
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, backURL),
		Message: msg,
	}
	w.WriteHeader(code)
	templates.Render(w, r, "error_page", data)
}

// ErrorLogger logs handler failures and answers with a friendly page.
type ErrorLogger struct {
	log *zap.Logger
}

func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

// LogServerError logs err and renders a 500 page showing userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	e.respond(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL)
}

// NotFound renders a 404 page without logging.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg, backURL string) {
	e.respond(w, r, http.StatusNotFound, "Not found", userMsg, backURL)
}

func (e *ErrorLogger) respond(w http.ResponseWriter, r *http.Request, code int, title, userMsg, backURL string) {
	render(w, r, code, title, userMsg, backURL)
}
