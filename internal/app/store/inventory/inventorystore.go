// internal/app/store/inventory/inventorystore.go
package inventorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound          = errors.New("inventory item not found")
	ErrNameRequired      = errors.New("item name is required")
	ErrDuplicate         = errors.New("an item with this name or SKU already exists")
	ErrNegative          = errors.New("quantity and reorder level must not be negative")
	ErrInsufficientStock = errors.New("not enough stock")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("inventory")}
}

func (s *Store) Create(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.SKU = strings.TrimSpace(item.SKU)
	item.Unit = strings.TrimSpace(item.Unit)
	if item.Name == "" {
		return models.InventoryItem{}, ErrNameRequired
	}
	if item.Quantity < 0 || item.ReorderLevel < 0 {
		return models.InventoryItem{}, ErrNegative
	}
	if item.Unit == "" {
		item.Unit = "each"
	}

	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.NameCI = text.Fold(item.Name)
	item.CreatedAt = now
	item.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		if wafflemongo.IsDup(err) {
			return models.InventoryItem{}, ErrDuplicate
		}
		return models.InventoryItem{}, err
	}
	return item, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return models.InventoryItem{}, ErrNotFound
	}
	if err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// Update sets name, SKU, unit and reorder level. Stock counts change only
// through Adjust.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, item models.InventoryItem) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name := strings.TrimSpace(item.Name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if sku := strings.TrimSpace(item.SKU); sku != "" {
		set["sku"] = sku
	}
	if unit := strings.TrimSpace(item.Unit); unit != "" {
		set["unit"] = unit
	}
	if item.ReorderLevel < 0 {
		return ErrNegative
	}
	set["reorder_level"] = item.ReorderLevel

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an item by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Adjust changes the stock count by delta in one atomic update. A negative
// delta that would take the count below zero fails with
// ErrInsufficientStock and changes nothing.
func (s *Store) Adjust(ctx context.Context, id primitive.ObjectID, delta int) (models.InventoryItem, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item models.InventoryItem
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}, opts).Decode(&item)
	if err == mongo.ErrNoDocuments {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.InventoryItem{}, gerr
		}
		return models.InventoryItem{}, ErrInsufficientStock
	}
	if err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// UpsertByName sets the stock count, reorder level, unit and SKU of the
// item whose folded name matches item.Name, creating it when absent.
func (s *Store) UpsertByName(ctx context.Context, item models.InventoryItem) (stored models.InventoryItem, created bool, err error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return models.InventoryItem{}, false, ErrNameRequired
	}
	if item.Quantity < 0 || item.ReorderLevel < 0 {
		return models.InventoryItem{}, false, ErrNegative
	}

	set := bson.M{
		"quantity":      item.Quantity,
		"reorder_level": item.ReorderLevel,
		"updated_at":    time.Now().UTC(),
	}
	if sku := strings.TrimSpace(item.SKU); sku != "" {
		set["sku"] = sku
	}
	if unit := strings.TrimSpace(item.Unit); unit != "" {
		set["unit"] = unit
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.c.FindOneAndUpdate(ctx, bson.M{"name_ci": text.Fold(item.Name)}, bson.M{"$set": set}, opts).Decode(&stored)
	switch {
	case err == nil:
		return stored, false, nil
	case err != mongo.ErrNoDocuments:
		if wafflemongo.IsDup(err) {
			return models.InventoryItem{}, false, ErrDuplicate
		}
		return models.InventoryItem{}, false, err
	}

	stored, err = s.Create(ctx, item)
	if err != nil {
		return models.InventoryItem{}, false, err
	}
	return stored, true, nil
}

// Draw takes stock for every sale line linked to an inventory item. Each
// line is applied on its own; lines that could not be drawn (unknown item
// or not enough stock) are returned. The error is set only when the
// database fails.
func (s *Store) Draw(ctx context.Context, items []models.SaleItem) ([]models.SaleItem, error) {
	var short []models.SaleItem
	for _, it := range items {
		if it.InventoryID == nil || it.Quantity <= 0 {
			continue
		}
		_, err := s.Adjust(ctx, *it.InventoryID, -it.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrNotFound):
			short = append(short, it)
		default:
			return short, err
		}
	}
	return short, nil
}

// List returns one keyset page of items ordered by name, optionally
// narrowed by a name prefix.
func (s *Store) List(ctx context.Context, search, before, after string) (paging.Page[models.InventoryItem], error) {
	filter := bson.M{}
	if q := text.Fold(strings.TrimSpace(search)); q != "" {
		filter["name_ci"] = bson.M{"$gte": q, "$lt": q + "\uffff"}
	}
	cfg := paging.ConfigureKeyset(before, after)
	cfg.Apply(filter, "name_ci")

	cur, err := s.c.Find(ctx, filter, cfg.FindOptions("name_ci"))
	if err != nil {
		return paging.Page[models.InventoryItem]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.InventoryItem
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.InventoryItem]{}, err
	}
	return paging.BuildPage(rows, before, after,
		func(i models.InventoryItem) string { return i.NameCI },
		func(i models.InventoryItem) primitive.ObjectID { return i.ID },
	), nil
}

// All returns every item ordered by name.
func (s *Store) All(ctx context.Context) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{})
}

// LowStock returns the items at or below their reorder level.
func (s *Store) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{"$expr": bson.M{"$lte": bson.A{"$quantity", "$reorder_level"}}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InventoryItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
