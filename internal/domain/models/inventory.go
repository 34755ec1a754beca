// internal/domain/models/inventory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is a stocked supply: detergent, softener, bags, hangers.
type InventoryItem struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	SKU          string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Unit         string             `bson:"unit" json:"unit"` // e.g. "box", "bottle"
	Quantity     int                `bson:"quantity" json:"quantity"`
	ReorderLevel int                `bson:"reorder_level" json:"reorder_level"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Low reports whether stock is at or below the reorder level.
func (i InventoryItem) Low() bool {
	return i.Quantity <= i.ReorderLevel
}
