// internal/app/features/sales/handler.go
package sales

import (
	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	salestore "github.com/dalemusser/laundrypos/internal/app/store/sales"
	"github.com/dalemusser/laundrypos/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the sales feature.
type Handler struct {
	DB        *mongo.Database
	Sales     *salestore.Store
	Inventory *inventorystore.Store
	ErrLog    *uierrors.ErrorLogger
	Audit     *auditlog.Logger
	Log       *zap.Logger
}

// NewHandler constructs a new sales Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Sales:     salestore.New(db),
		Inventory: inventorystore.New(db),
		ErrLog:    errLog,
		Audit:     audit,
		Log:       logger,
	}
}
