// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB        *mongo.Database
	Events    *audit.Store
	Employees *employeestore.Store
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Events:    audit.New(db),
		Employees: employeestore.New(db),
		Log:       logger,
		ErrLog:    errLog,
	}
}
