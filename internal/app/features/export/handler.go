// internal/app/features/export/handler.go
package export

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	timesheetstore "github.com/dalemusser/laundrypos/internal/app/store/timesheets"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"github.com/dalemusser/laundrypos/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves CSV downloads and emailed sales reports.
type Handler struct {
	DB         *mongo.Database
	Sales      *salestore.Store
	Timesheets *timesheetstore.Store
	Employees  *employeestore.Store
	Inventory  *inventorystore.Store
	Mailer     *mailer.Mailer

	SiteName string
	BaseURL  string // absolute URL of this server, used for links in email

	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a new export Handler.
func NewHandler(db *mongo.Database, m *mailer.Mailer, siteName, baseURL string, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Sales:      salestore.New(db),
		Timesheets: timesheetstore.New(db),
		Employees:  employeestore.New(db),
		Inventory:  inventorystore.New(db),
		Mailer:     m,
		SiteName:   siteName,
		BaseURL:    baseURL,
		ErrLog:     errLog,
		Audit:      audit,
		Log:        logger,
	}
}
