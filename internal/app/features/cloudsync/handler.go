// internal/app/features/cloudsync/handler.go
package cloudsync

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler receives batches of records that terminals captured while
// offline.
type Handler struct {
	DB         *mongo.Database
	Sales      *salestore.Store
	Timesheets *timesheetstore.Store
	Employees  *employeestore.Store
	Inventory  *inventorystore.Store
	ErrLog     *uierrors.ErrorLogger
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler constructs a new sync Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Sales:      salestore.New(db),
		Timesheets: timesheetstore.New(db),
		Employees:  employeestore.New(db),
		Inventory:  inventorystore.New(db),
		ErrLog:     errLog,
		Audit:      audit,
		Log:        logger,
	}
}
