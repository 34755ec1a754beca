// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /api/audit. Filters: category, event_type,
// subject (hex id), start_date and end_date (YYYY-MM-DD, inclusive), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := query.Get(r, "category")
	eventType := query.Get(r, "event_type")

	if category != "" && eventTypesForCategory(category) == nil {
		uierrors.WriteError(w, http.StatusBadRequest, "unknown category")
		return
	}
	if eventType != "" && !slices.Contains(eventTypesForCategory(category), eventType) {
		uierrors.WriteError(w, http.StatusBadRequest, "unknown event_type")
		return
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if s := query.Get(r, "subject"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "invalid subject id")
			return
		}
		filter.SubjectID = &oid
	}
	if d := strings.TrimSpace(query.Get(r, "start_date")); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if d := strings.TrimSpace(query.Get(r, "end_date")); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error querying audit events", err, "A database error occurred.")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting audit events", err, "A database error occurred.")
		return
	}

	// Batch fetch actor names
	seen := make(map[primitive.ObjectID]struct{})
	var actorIDs []primitive.ObjectID
	for _, e := range events {
		if e.ActorID != nil {
			if _, ok := seen[*e.ActorID]; !ok {
				seen[*e.ActorID] = struct{}{}
				actorIDs = append(actorIDs, *e.ActorID)
			}
		}
	}
	names, err := h.Employees.Names(ctx, actorIDs)
	if err != nil {
		h.Log.Warn("failed to fetch employee names for audit log", zap.Error(err))
		names = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Terminal:      e.Terminal,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			if name, ok := names[*e.ActorID]; ok {
				item.ActorName = name
			}
		}
		if e.SubjectID != nil {
			item.SubjectID = e.SubjectID.Hex()
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	})
}

// ServeTypes handles GET /api/audit/types with the filter options.
func (h *Handler) ServeTypes(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, allCategories())
}
