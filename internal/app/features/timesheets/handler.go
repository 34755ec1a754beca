// internal/app/features/timesheets/handler.go
package timesheets

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the timesheets feature.
type Handler struct {
	DB         *mongo.Database
	Timesheets *timesheetstore.Store
	Employees  *employeestore.Store
	ErrLog     *uierrors.ErrorLogger
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler constructs a new timesheets Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Timesheets: timesheetstore.New(db),
		Employees:  employeestore.New(db),
		ErrLog:     errLog,
		Audit:      audit,
		Log:        logger,
	}
}
