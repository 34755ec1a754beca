// internal/app/features/employees/handler.go
package employees

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	employeestore "github.com/dalemusser/laundrypos/internal/app/store/employees"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the employees feature.
type Handler struct {
	DB     *mongo.Database
	Store  *employeestore.Store
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a new employees Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Store:  employeestore.New(db),
		ErrLog: errLog,
		Audit:  audit,
		Log:    logger,
	}
}
