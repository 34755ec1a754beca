// internal/app/store/sales/salestore.go
package salestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DateLayout is the format of Sale.BusinessDate.
const DateLayout = "2006-01-02"

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound         = errors.New("sale not found")
	ErrInvalid          = errors.New("invalid sale")
	ErrDuplicateReceipt = errors.New("a sale with this receipt number already exists")
	ErrClientIDRequired = errors.New("client_id is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sales")}
}

// Validate checks a sale before it is written. The error wraps ErrInvalid.
func Validate(s models.Sale) error {
	if _, err := time.Parse(DateLayout, s.BusinessDate); err != nil {
		return fmt.Errorf("%w: business_date must be YYYY-MM-DD", ErrInvalid)
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalid)
	}
	for i, it := range s.Items {
		if !slices.Contains(models.SaleItemKinds, it.Kind) {
			return fmt.Errorf("%w: item %d has unknown kind %q", ErrInvalid, i+1, it.Kind)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalid, i+1)
		}
		if it.UnitCents < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalid, i+1)
		}
	}
	if !slices.Contains(models.PaymentMethods, s.Payment) {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalid, s.Payment)
	}
	return nil
}

// NewReceipt returns a receipt number for a sale on businessDate, e.g.
// "R20250314-9F86D081".
func NewReceipt(businessDate string) string {
	tag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "R" + strings.ReplaceAll(businessDate, "-", "") + "-" + tag
}

// prepare normalizes s for insertion: it fills defaults, recomputes the
// total from the lines, and validates.
func prepare(s models.Sale, now time.Time) (models.Sale, error) {
	s.ClientID = strings.TrimSpace(s.ClientID)
	s.Notes = strings.TrimSpace(s.Notes)
	if s.BusinessDate == "" {
		s.BusinessDate = now.Format(DateLayout)
	}
	if s.Payment == "" {
		s.Payment = models.PaymentCash
	}
	if err := Validate(s); err != nil {
		return models.Sale{}, err
	}
	if strings.TrimSpace(s.Receipt) == "" {
		s.Receipt = NewReceipt(s.BusinessDate)
	}
	s.TotalCents = s.ComputeTotal()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

// Create records a sale. The receipt number is generated when empty and the
// total is always recomputed from the lines.
func (s *Store) Create(ctx context.Context, sale models.Sale) (models.Sale, error) {
	sale, err := prepare(sale, time.Now().UTC())
	if err != nil {
		return models.Sale{}, err
	}
	if _, err := s.c.InsertOne(ctx, sale); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Sale{}, ErrDuplicateReceipt
		}
		return models.Sale{}, err
	}
	return sale, nil
}

// UpsertByClientID records a sale rung up on a terminal, keyed by its
// ClientID. Replaying the same ClientID returns the stored sale with
// created=false and leaves it untouched.
func (s *Store) UpsertByClientID(ctx context.Context, sale models.Sale) (stored models.Sale, created bool, err error) {
	if strings.TrimSpace(sale.ClientID) == "" {
		return models.Sale{}, false, ErrClientIDRequired
	}
	sale, err = prepare(sale, time.Now().UTC())
	if err != nil {
		return models.Sale{}, false, err
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"client_id": sale.ClientID},
		bson.M{"$setOnInsert": sale},
		options.Update().SetUpsert(true),
	)
	if err != nil && !wafflemongo.IsDup(err) {
		return models.Sale{}, false, err
	}
	if err == nil && res.UpsertedCount == 1 {
		return sale, true, nil
	}

	// Already present, or lost an insert race to the same client_id.
	var existing models.Sale
	if err := s.c.FindOne(ctx, bson.M{"client_id": sale.ClientID}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			// The duplicate was on the receipt, not the client id.
			return models.Sale{}, false, ErrDuplicateReceipt
		}
		return models.Sale{}, false, err
	}
	return existing, false, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Sale, error) {
	var sale models.Sale
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sale)
	if err == mongo.ErrNoDocuments {
		return models.Sale{}, ErrNotFound
	}
	if err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

// Update replaces the lines, payment and notes of a sale and recomputes its
// total. Receipt, business date and client id never change.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, sale models.Sale) (models.Sale, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Sale{}, err
	}

	cur.Items = sale.Items
	if sale.Payment != "" {
		cur.Payment = sale.Payment
	}
	cur.Notes = strings.TrimSpace(sale.Notes)
	if sale.EmployeeID != nil {
		cur.EmployeeID = sale.EmployeeID
	}
	if err := Validate(cur); err != nil {
		return models.Sale{}, err
	}
	cur.TotalCents = cur.ComputeTotal()
	cur.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"items":       cur.Items,
		"payment":     cur.Payment,
		"notes":       cur.Notes,
		"total_cents": cur.TotalCents,
		"updated_at":  cur.UpdatedAt,
	}
	if cur.EmployeeID != nil {
		set["employee_id"] = *cur.EmployeeID
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return models.Sale{}, err
	}
	if res.MatchedCount == 0 {
		return models.Sale{}, ErrNotFound
	}
	return cur, nil
}

// Delete removes a sale by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByDate returns one keyset page of the sales of a business day,
// ordered by receipt number.
func (s *Store) ListByDate(ctx context.Context, businessDate, before, after string) (paging.Page[models.Sale], error) {
	filter := bson.M{"business_date": businessDate}
	cfg := paging.ConfigureKeyset(before, after)
	cfg.Apply(filter, "receipt")

	cur, err := s.c.Find(ctx, filter, cfg.FindOptions("receipt"))
	if err != nil {
		return paging.Page[models.Sale]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Sale
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Sale]{}, err
	}
	return paging.BuildPage(rows, before, after,
		func(s models.Sale) string { return s.Receipt },
		func(s models.Sale) primitive.ObjectID { return s.ID },
	), nil
}

// ListRange returns every sale with from <= business_date <= to, ordered by
// date then receipt. Used by exports.
func (s *Store) ListRange(ctx context.Context, from, to string) ([]models.Sale, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "business_date", Value: 1},
		{Key: "receipt", Value: 1},
	})
	cur, err := s.c.Find(ctx, bson.M{"business_date": bson.M{"$gte": from, "$lte": to}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Sale
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// KindTotal is the quantity and revenue of one item kind.
type KindTotal struct {
	Quantity int64 `bson:"quantity" json:"quantity"`
	Cents    int64 `bson:"cents" json:"cents"`
}

// Summary is the end-of-day report for a business date.
type Summary struct {
	BusinessDate string               `json:"business_date"`
	Sales        int64                `json:"sales"`
	TotalCents   int64                `json:"total_cents"`
	ByPayment    map[string]int64     `json:"by_payment"`
	ByKind       map[string]KindTotal `json:"by_kind"`
}

// DailySummary totals the sales of a business day by payment method and by
// item kind.
func (s *Store) DailySummary(ctx context.Context, businessDate string) (Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"business_date": businessDate}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":   nil,
					"count": bson.M{"$sum": 1},
					"cents": bson.M{"$sum": "$total_cents"},
				}},
			},
			"payments": bson.A{
				bson.M{"$group": bson.M{
					"_id":   "$payment",
					"cents": bson.M{"$sum": "$total_cents"},
				}},
			},
			"kinds": bson.A{
				bson.M{"$unwind": "$items"},
				bson.M{"$group": bson.M{
					"_id":      "$items.kind",
					"quantity": bson.M{"$sum": "$items.quantity"},
					"cents": bson.M{"$sum": bson.M{
						"$multiply": bson.A{"$items.quantity", "$items.unit_cents"},
					}},
				}},
			},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Summary{}, err
	}
	defer cur.Close(ctx)

	var facets []struct {
		Totals []struct {
			Count int64 `bson:"count"`
			Cents int64 `bson:"cents"`
		} `bson:"totals"`
		Payments []struct {
			Method string `bson:"_id"`
			Cents  int64  `bson:"cents"`
		} `bson:"payments"`
		Kinds []struct {
			Kind     string `bson:"_id"`
			Quantity int64  `bson:"quantity"`
			Cents    int64  `bson:"cents"`
		} `bson:"kinds"`
	}
	if err := cur.All(ctx, &facets); err != nil {
		return Summary{}, err
	}

	sum := Summary{
		BusinessDate: businessDate,
		ByPayment:    map[string]int64{},
		ByKind:       map[string]KindTotal{},
	}
	if len(facets) == 0 {
		return sum, nil
	}
	f := facets[0]
	if len(f.Totals) > 0 {
		sum.Sales = f.Totals[0].Count
		sum.TotalCents = f.Totals[0].Cents
	}
	for _, p := range f.Payments {
		sum.ByPayment[p.Method] = p.Cents
	}
	for _, k := range f.Kinds {
		sum.ByKind[k.Kind] = KindTotal{Quantity: k.Quantity, Cents: k.Cents}
	}
	return sum, nil
}
