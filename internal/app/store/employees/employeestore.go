// internal/app/store/employees/employeestore.go
package employeestore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/paging"
	"github.com/dalemusser/laundrypos/internal/app/system/status"
	"github.com/dalemusser/laundrypos/internal/domain/models"
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
	ErrNotFound      = errors.New("employee not found")
	ErrNameRequired  = errors.New("employee name is required")
	ErrInvalidRole   = errors.New("invalid employee role")
	ErrInvalidStatus = errors.New("invalid employee status")
	ErrInvalidRate   = errors.New("hourly rate must not be negative")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("employees")}
}

func (s *Store) Create(ctx context.Context, emp models.Employee) (models.Employee, error) {
	emp.FullName = strings.TrimSpace(emp.FullName)
	if emp.Role == "" {
		emp.Role = models.RoleAttendant
	}
	if emp.Status == "" {
		emp.Status = status.Active
	}
	if err := validate(emp); err != nil {
		return models.Employee{}, err
	}

	now := time.Now().UTC()
	emp.ID = primitive.NewObjectID()
	emp.FullNameCI = text.Fold(emp.FullName)
	emp.CreatedAt = now
	emp.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, emp); err != nil {
		return models.Employee{}, err
	}
	return emp, nil
}

func validate(emp models.Employee) error {
	if emp.FullName == "" {
		return ErrNameRequired
	}
	if !slices.Contains(models.EmployeeRoles, emp.Role) {
		return ErrInvalidRole
	}
	if !status.IsValid(emp.Status) {
		return ErrInvalidStatus
	}
	if emp.HourlyRateCents < 0 {
		return ErrInvalidRate
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Employee, error) {
	var emp models.Employee
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&emp)
	if err == mongo.ErrNoDocuments {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, err
	}
	return emp, nil
}

// Update modifies the non-empty fields of emp and refreshes UpdatedAt.
// A negative HourlyRateCents is rejected; zero leaves the rate unchanged.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, emp models.Employee) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if name := strings.TrimSpace(emp.FullName); name != "" {
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if emp.Role != "" {
		if !slices.Contains(models.EmployeeRoles, emp.Role) {
			return ErrInvalidRole
		}
		set["role"] = emp.Role
	}
	if emp.Status != "" {
		if !status.IsValid(emp.Status) {
			return ErrInvalidStatus
		}
		set["status"] = emp.Status
	}
	if emp.HourlyRateCents < 0 {
		return ErrInvalidRate
	}
	if emp.HourlyRateCents > 0 {
		set["hourly_rate_cents"] = emp.HourlyRateCents
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an employee by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListActive returns every active employee ordered by name. Terminals use
// it to populate the clock-in picker.
func (s *Store) ListActive(ctx context.Context) ([]models.Employee, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": status.Active}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Employee
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names maps each of ids to the employee's full name. Unknown IDs are
// left out of the map.
func (s *Store) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var e struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out[e.ID] = e.FullName
	}
	return out, cur.Err()
}

// Filter narrows a List call.
type Filter struct {
	Status string // "" for any
	Search string // name prefix, case/diacritic-insensitive
}

// List returns one keyset page of employees ordered by name.
func (s *Store) List(ctx context.Context, f Filter, before, after string) (paging.Page[models.Employee], error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if q := text.Fold(strings.TrimSpace(f.Search)); q != "" {
		filter["full_name_ci"] = bson.M{"$gte": q, "$lt": q + "\uffff"}
	}

	cfg := paging.ConfigureKeyset(before, after)
	cfg.Apply(filter, "full_name_ci")

	cur, err := s.c.Find(ctx, filter, cfg.FindOptions("full_name_ci"))
	if err != nil {
		return paging.Page[models.Employee]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Employee
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Employee]{}, err
	}
	return paging.BuildPage(rows, before, after,
		func(e models.Employee) string { return e.FullNameCI },
		func(e models.Employee) primitive.ObjectID { return e.ID },
	), nil
}
