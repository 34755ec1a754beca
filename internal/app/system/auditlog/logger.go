// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"github.com/dalemusser/laundrypos/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Header names a terminal may send to identify itself and the employee
// working it. Both are optional.
const (
	EmployeeHeader = "X-Employee-ID"
	TerminalHeader = "X-Terminal-ID"
)

// Config holds audit logging configuration.
type Config struct {
	// Changes controls logging for record edits (sales, stock, staff, timesheets, reports).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Changes string
	// Sync controls logging for offline upload batches.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Sync string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// actorFromRequest reads the optional employee header.
func actorFromRequest(r *http.Request) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(r.Header.Get(EmployeeHeader))
	if err != nil {
		return nil
	}
	return &oid
}

// base fills the request-derived fields of an event.
func base(r *http.Request, category, eventType string, subject *primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		ActorID:   actorFromRequest(r),
		SubjectID: subject,
		Terminal:  r.Header.Get(TerminalHeader),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.Terminal != "" {
		fields = append(fields, zap.String("terminal", event.Terminal))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryChanges:
		setting = l.config.Changes
	case audit.CategorySync:
		setting = l.config.Sync
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Sales ---

// SaleUpdated logs a correction to a recorded sale.
func (l *Logger) SaleUpdated(ctx context.Context, r *http.Request, saleID primitive.ObjectID, receipt string, totalCents int64) {
	ev := base(r, audit.CategoryChanges, audit.EventSaleUpdated, &saleID)
	ev.Details = map[string]string{
		"receipt":     receipt,
		"total_cents": strconv.FormatInt(totalCents, 10),
	}
	l.Log(ctx, ev)
}

// SaleDeleted logs removal of a sale.
func (l *Logger) SaleDeleted(ctx context.Context, r *http.Request, saleID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryChanges, audit.EventSaleDeleted, &saleID))
}

// --- Inventory ---

// StockAdjusted logs a quantity change on an item.
func (l *Logger) StockAdjusted(ctx context.Context, r *http.Request, itemID primitive.ObjectID, delta, quantity int, reason string) {
	ev := base(r, audit.CategoryChanges, audit.EventStockAdjusted, &itemID)
	ev.Details = map[string]string{
		"delta":    strconv.Itoa(delta),
		"quantity": strconv.Itoa(quantity),
	}
	if reason != "" {
		ev.Details["reason"] = reason
	}
	l.Log(ctx, ev)
}

// StockImported logs a CSV import of inventory.
func (l *Logger) StockImported(ctx context.Context, r *http.Request, created, updated int) {
	ev := base(r, audit.CategoryChanges, audit.EventStockImported, nil)
	ev.Details = map[string]string{
		"created": strconv.Itoa(created),
		"updated": strconv.Itoa(updated),
	}
	l.Log(ctx, ev)
}

// ItemDeleted logs removal of an inventory item.
func (l *Logger) ItemDeleted(ctx context.Context, r *http.Request, itemID primitive.ObjectID, name string) {
	ev := base(r, audit.CategoryChanges, audit.EventItemDeleted, &itemID)
	ev.Details = map[string]string{"name": name}
	l.Log(ctx, ev)
}

// --- Staff ---

// EmployeeCreated logs a new employee record.
func (l *Logger) EmployeeCreated(ctx context.Context, r *http.Request, empID primitive.ObjectID, fullName, role string) {
	ev := base(r, audit.CategoryChanges, audit.EventEmployeeCreated, &empID)
	ev.Details = map[string]string{"full_name": fullName, "role": role}
	l.Log(ctx, ev)
}

// EmployeeUpdated logs changed employee fields. fields lists what was set.
func (l *Logger) EmployeeUpdated(ctx context.Context, r *http.Request, empID primitive.ObjectID, fields map[string]string) {
	ev := base(r, audit.CategoryChanges, audit.EventEmployeeUpdated, &empID)
	ev.Details = fields
	l.Log(ctx, ev)
}

// EmployeeDeleted logs removal of an employee.
func (l *Logger) EmployeeDeleted(ctx context.Context, r *http.Request, empID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryChanges, audit.EventEmployeeDeleted, &empID))
}

// --- Timesheets ---

// TimesheetCorrected logs a manager edit to a shift.
func (l *Logger) TimesheetCorrected(ctx context.Context, r *http.Request, shiftID primitive.ObjectID, employeeID primitive.ObjectID) {
	ev := base(r, audit.CategoryChanges, audit.EventTimesheetCorrected, &shiftID)
	ev.Details = map[string]string{"employee_id": employeeID.Hex()}
	l.Log(ctx, ev)
}

// TimesheetDeleted logs removal of a shift.
func (l *Logger) TimesheetDeleted(ctx context.Context, r *http.Request, shiftID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryChanges, audit.EventTimesheetDeleted, &shiftID))
}

// --- Reports ---

// ReportEmailed logs a sales report sent by email. err is nil on success.
func (l *Logger) ReportEmailed(ctx context.Context, r *http.Request, from, to string, recipients int, err error) {
	ev := base(r, audit.CategoryChanges, audit.EventReportEmailed, nil)
	ev.Details = map[string]string{
		"from":       from,
		"to":         to,
		"recipients": strconv.Itoa(recipients),
	}
	if err != nil {
		ev.Success = false
		ev.FailureReason = err.Error()
	}
	l.Log(ctx, ev)
}

// --- Sync ---

// SyncBatch logs one offline upload from a terminal.
func (l *Logger) SyncBatch(ctx context.Context, r *http.Request, accepted, duplicates, rejected int) {
	ev := base(r, audit.CategorySync, audit.EventSyncBatch, nil)
	ev.Details = map[string]string{
		"accepted":   strconv.Itoa(accepted),
		"duplicates": strconv.Itoa(duplicates),
		"rejected":   strconv.Itoa(rejected),
	}
	if rejected > 0 {
		ev.Success = false
		ev.FailureReason = "some records rejected"
	}
	l.Log(ctx, ev)
}
