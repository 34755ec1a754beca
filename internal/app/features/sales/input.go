// internal/app/features/sales/input.go
package sales

import (
	"fmt"
	"strings"

	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleInput is the JSON body of a sale, shared with the sync feature.
type SaleInput struct {
	ClientID     string      `json:"client_id"`
	BusinessDate string      `json:"business_date"`
	Items        []ItemInput `json:"items"`
	Payment      string      `json:"payment"`
	EmployeeID   string      `json:"employee_id"`
	Notes        string      `json:"notes"`
}

// ItemInput is one receipt line.
type ItemInput struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
	InventoryID string `json:"inventory_id"`
}

// Model converts the input to a sale. Notes and descriptions are reduced
// to plain text. Field-level validation is left to the store.
func (in SaleInput) Model() (models.Sale, error) {
	sale := models.Sale{
		ClientID:     strings.TrimSpace(in.ClientID),
		BusinessDate: strings.TrimSpace(in.BusinessDate),
		Payment:      strings.TrimSpace(in.Payment),
		Notes:        htmlsanitize.StripTags(in.Notes),
	}
	if in.EmployeeID != "" {
		oid, err := primitive.ObjectIDFromHex(in.EmployeeID)
		if err != nil {
			return models.Sale{}, fmt.Errorf("invalid employee_id %q", in.EmployeeID)
		}
		sale.EmployeeID = &oid
	}
	for i, it := range in.Items {
		line := models.SaleItem{
			Kind:        strings.TrimSpace(it.Kind),
			Description: htmlsanitize.StripTags(it.Description),
			Quantity:    it.Quantity,
			UnitCents:   it.UnitCents,
		}
		if it.InventoryID != "" {
			oid, err := primitive.ObjectIDFromHex(it.InventoryID)
			if err != nil {
				return models.Sale{}, fmt.Errorf("item %d: invalid inventory_id %q", i+1, it.InventoryID)
			}
			line.InventoryID = &oid
		}
		sale.Items = append(sale.Items, line)
	}
	return sale, nil
}
