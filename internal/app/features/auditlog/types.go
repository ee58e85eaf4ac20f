// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/nestoreco/nestor/internal/app/store/audit"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	ID         string
	Timestamp  time.Time
	Category   string
	EventType  string
	ActorName  string // resolved from ActorID
	TargetName string // resolved from UserID
	IP         string
	Success    bool
	Details    map[string]string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string

	Categories []categoryOption
	EventTypes []string

	Page       int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLogout,
	}
	adminEvents := []string{
		audit.EventUserCreated,
		audit.EventUserUpdated,
		audit.EventPasswordReset,
		audit.EventProjectCreated,
		audit.EventProjectDeleted,
		audit.EventContactCreated,
		audit.EventContactUpdated,
		audit.EventContactDeleted,
		audit.EventOfferCreated,
		audit.EventOfferDeleted,
		audit.EventCatalogItemCreated,
		audit.EventCatalogItemUpdated,
		audit.EventCatalogItemDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		return append(all, adminEvents...)
	default:
		return nil
	}
}
