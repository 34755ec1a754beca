// internal/app/features/sales/stock.go
package sales

import (
	"context"

	inventorystore "github.com/dalemusser/laundrypos/internal/app/store/inventory"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.uber.org/zap"
)

// DrawStock takes stock for the lines of a newly recorded sale that carry
// an inventory_id. Shortfalls are logged and returned; the sale stands
// regardless.
func DrawStock(ctx context.Context, inv *inventorystore.Store, sale models.Sale, logger *zap.Logger) []models.SaleItem {
	short, err := inv.Draw(ctx, sale.Items)
	if err != nil {
		logger.Error("draw stock for sale", zap.String("receipt", sale.Receipt), zap.Error(err))
		return short
	}
	for _, it := range short {
		logger.Warn("stock not drawn for sale line",
			zap.String("receipt", sale.Receipt),
			zap.String("inventory_id", it.InventoryID.Hex()),
			zap.Int("quantity", it.Quantity))
	}
	return short
}
