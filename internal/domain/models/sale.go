// internal/domain/models/sale.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sale item kinds.
const (
	ItemWash    = "wash"
	ItemDry     = "dry"
	ItemFold    = "fold"
	ItemProduct = "product"
)

// SaleItemKinds lists every valid SaleItem.Kind.
var SaleItemKinds = []string{ItemWash, ItemDry, ItemFold, ItemProduct}

// Payment methods.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// PaymentMethods lists every valid Sale.Payment.
var PaymentMethods = []string{PaymentCash, PaymentCard}

// SaleItem is one line of a receipt.
type SaleItem struct {
	Kind        string `bson:"kind" json:"kind"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	UnitCents   int64  `bson:"unit_cents" json:"unit_cents"`

	// InventoryID links product lines to the stock they draw from.
	InventoryID *primitive.ObjectID `bson:"inventory_id,omitempty" json:"inventory_id,omitempty"`
}

// LineCents is Quantity × UnitCents.
func (it SaleItem) LineCents() int64 {
	return int64(it.Quantity) * it.UnitCents
}

// Sale is a completed counter transaction.
//
// ClientID is assigned by the terminal that rang the sale up. Sales
// recorded while offline are uploaded later and deduplicated on it.
type Sale struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	ClientID     string              `bson:"client_id,omitempty" json:"client_id,omitempty"`
	Receipt      string              `bson:"receipt" json:"receipt"`
	BusinessDate string              `bson:"business_date" json:"business_date"` // YYYY-MM-DD
	Items        []SaleItem          `bson:"items" json:"items"`
	TotalCents   int64               `bson:"total_cents" json:"total_cents"`
	Payment      string              `bson:"payment" json:"payment"`
	EmployeeID   *primitive.ObjectID `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// ComputeTotal sums the line totals of s.Items.
func (s *Sale) ComputeTotal() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.LineCents()
	}
	return total
}
