// internal/app/features/inventory/handler.go
package inventory

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the inventory feature.
type Handler struct {
	DB     *mongo.Database
	Store  *inventorystore.Store
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a new inventory Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Store:  inventorystore.New(db),
		ErrLog: errLog,
		Audit:  audit,
		Log:    logger,
	}
}
