package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/laundrypos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateEmployee inserts an active employee with the given name and role.
func (f *Fixtures) CreateEmployee(ctx context.Context, name, role string) models.Employee {
	f.t.Helper()

	now := time.Now().UTC()
	emp := models.Employee{
		ID:              primitive.NewObjectID(),
		FullName:        name,
		FullNameCI:      text.Fold(name),
		Role:            role,
		HourlyRateCents: 1500,
		Status:          "active",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("employees").InsertOne(ctx, emp); err != nil {
		f.t.Fatalf("failed to create test employee: %v", err)
	}
	return emp
}

// CreateInventoryItem inserts a stock item.
func (f *Fixtures) CreateInventoryItem(ctx context.Context, name string, quantity, reorderLevel int) models.InventoryItem {
	f.t.Helper()

	now := time.Now().UTC()
	item := models.InventoryItem{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Unit:         "each",
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("inventory").InsertOne(ctx, item); err != nil {
		f.t.Fatalf("failed to create test inventory item: %v", err)
	}
	return item
}

// CreateSale inserts a cash sale of a single wash line on businessDate.
func (f *Fixtures) CreateSale(ctx context.Context, businessDate string, washes int, unitCents int64) models.Sale {
	f.t.Helper()

	now := time.Now().UTC()
	sale := models.Sale{
		ID:           primitive.NewObjectID(),
		Receipt:      "T-" + uuid.NewString()[:8],
		BusinessDate: businessDate,
		Items: []models.SaleItem{
			{Kind: models.ItemWash, Quantity: washes, UnitCents: unitCents},
		},
		Payment:   models.PaymentCash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sale.TotalCents = sale.ComputeTotal()
	if _, err := f.db.Collection("sales").InsertOne(ctx, sale); err != nil {
		f.t.Fatalf("failed to create test sale: %v", err)
	}
	return sale
}
