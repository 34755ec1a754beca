// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/laundrypos/internal/app/store/audit"
)

// listItem is one audit event with names resolved.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"` // Resolved from ActorID
	SubjectID     string            `json:"subject_id,omitempty"`
	Terminal      string            `json:"terminal,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listResponse is the body of GET /api/audit.
type listResponse struct {
	Items      []listItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"event_types"`
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryChanges, Label: "Record changes", EventTypes: eventTypesForCategory(audit.CategoryChanges)},
		{Value: audit.CategorySync, Label: "Terminal sync", EventTypes: eventTypesForCategory(audit.CategorySync)},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	changeEvents := []string{
		audit.EventSaleUpdated,
		audit.EventSaleDeleted,
		audit.EventStockAdjusted,
		audit.EventStockImported,
		audit.EventItemDeleted,
		audit.EventEmployeeCreated,
		audit.EventEmployeeUpdated,
		audit.EventEmployeeDeleted,
		audit.EventTimesheetCorrected,
		audit.EventTimesheetDeleted,
		audit.EventReportEmailed,
	}
	syncEvents := []string{
		audit.EventSyncBatch,
	}

	switch category {
	case audit.CategoryChanges:
		return changeEvents
	case audit.CategorySync:
		return syncEvents
	case "":
		all := make([]string, 0, len(changeEvents)+len(syncEvents))
		all = append(all, changeEvents...)
		all = append(all, syncEvents...)
		return all
	default:
		return nil
	}
}
