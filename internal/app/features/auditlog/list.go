// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit - displays the audit log list with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if t, err := time.Parse("2006-01-02", startDate); err == nil {
		filter.StartTime = &t
	}
	if t, err := time.Parse("2006-01-02", endDate); err == nil {
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.", "/")
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.", "/")
		return
	}

	names := map[primitive.ObjectID]string{}
	if users, err := h.Users.List(ctx); err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
	} else {
		for _, u := range users {
			names[u.ID] = u.FullName
		}
	}
	nameOf := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:         e.ID.Hex(),
			Timestamp:  e.Timestamp,
			Category:   e.Category,
			EventType:  e.EventType,
			ActorName:  nameOf(e.ActorID),
			TargetName: nameOf(e.UserID),
			IP:         e.IP,
			Success:    e.Success,
			Details:    e.Details,
		})
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	pageURL := func(p int) string {
		v := url.Values{}
		for k, vs := range q {
			v[k] = vs
		}
		v.Set("page", strconv.Itoa(p))
		return r.URL.Path + "?" + v.Encode()
	}

	data := listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit log", "/"),
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if data.HasPrev {
		data.PrevURL = pageURL(page - 1)
	}
	if data.HasNext {
		data.NextURL = pageURL(page + 1)
	}
	templates.Render(w, r, "audit_list", data)
}
