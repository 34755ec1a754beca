// internal/app/store/timesheets/timesheetstore.go
package timesheetstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/laundrypos/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound         = errors.New("timesheet not found")
	ErrShiftOpen        = errors.New("employee already has an open shift")
	ErrNoOpenShift      = errors.New("employee has no open shift")
	ErrClockOutBeforeIn = errors.New("clock-out is before clock-in")
	ErrClientIDRequired = errors.New("client_id is required")
	ErrShiftIncomplete  = errors.New("synced shifts must have a clock-out")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("timesheets")}
}

// ClockIn opens a shift for employeeID at the given time.
//
// At most one shift per employee is open; a second ClockIn returns
// ErrShiftOpen. When clientID is set and a shift with that id already
// exists, the existing shift is returned instead.
func (s *Store) ClockIn(ctx context.Context, employeeID primitive.ObjectID, at time.Time, clientID, notes string) (models.Timesheet, error) {
	now := time.Now().UTC()
	ts := models.Timesheet{
		ID:         primitive.NewObjectID(),
		ClientID:   strings.TrimSpace(clientID),
		EmployeeID: employeeID,
		ClockIn:    at.UTC(),
		Open:       true,
		Notes:      strings.TrimSpace(notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.c.InsertOne(ctx, ts)
	if err == nil {
		return ts, nil
	}
	if !wafflemongo.IsDup(err) {
		return models.Timesheet{}, err
	}
	if ts.ClientID != "" {
		if existing, err := s.getByClientID(ctx, ts.ClientID); err == nil {
			return existing, nil
		}
	}
	return models.Timesheet{}, ErrShiftOpen
}

// ClockOut closes the employee's open shift at the given time and records
// its length in minutes.
func (s *Store) ClockOut(ctx context.Context, employeeID primitive.ObjectID, at time.Time) (models.Timesheet, error) {
	open, err := s.OpenShift(ctx, employeeID)
	if err != nil {
		return models.Timesheet{}, err
	}

	out := at.UTC()
	if out.Before(open.ClockIn) {
		return models.Timesheet{}, ErrClockOutBeforeIn
	}
	minutes := models.ShiftMinutes(open.ClockIn, out)
	now := time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": open.ID, "open": true},
		bson.M{"$set": bson.M{
			"clock_out":  out,
			"open":       false,
			"minutes":    minutes,
			"updated_at": now,
		}},
	)
	if err != nil {
		return models.Timesheet{}, err
	}
	if res.MatchedCount == 0 {
		// Closed concurrently.
		return models.Timesheet{}, ErrNoOpenShift
	}

	open.ClockOut = &out
	open.Open = false
	open.Minutes = minutes
	open.UpdatedAt = now
	return open, nil
}

// OpenShift returns the employee's open shift, or ErrNoOpenShift.
func (s *Store) OpenShift(ctx context.Context, employeeID primitive.ObjectID) (models.Timesheet, error) {
	var ts models.Timesheet
	err := s.c.FindOne(ctx, bson.M{"employee_id": employeeID, "open": true}).Decode(&ts)
	if err == mongo.ErrNoDocuments {
		return models.Timesheet{}, ErrNoOpenShift
	}
	if err != nil {
		return models.Timesheet{}, err
	}
	return ts, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Timesheet, error) {
	var ts models.Timesheet
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ts)
	if err == mongo.ErrNoDocuments {
		return models.Timesheet{}, ErrNotFound
	}
	if err != nil {
		return models.Timesheet{}, err
	}
	return ts, nil
}

func (s *Store) getByClientID(ctx context.Context, clientID string) (models.Timesheet, error) {
	var ts models.Timesheet
	err := s.c.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&ts)
	if err == mongo.ErrNoDocuments {
		return models.Timesheet{}, ErrNotFound
	}
	return ts, err
}

// Correction is a manager edit of a recorded shift. Nil fields are left
// unchanged.
type Correction struct {
	ClockIn  *time.Time
	ClockOut *time.Time
	Notes    *string
}

// Update applies a correction to a closed shift and recomputes its minutes.
// An open shift can only have its notes edited.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c Correction) (models.Timesheet, error) {
	ts, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Timesheet{}, err
	}

	if c.ClockIn != nil {
		ts.ClockIn = c.ClockIn.UTC()
	}
	if c.ClockOut != nil && !ts.Open {
		out := c.ClockOut.UTC()
		ts.ClockOut = &out
	}
	if c.Notes != nil {
		ts.Notes = strings.TrimSpace(*c.Notes)
	}

	ts.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"clock_in":   ts.ClockIn,
		"notes":      ts.Notes,
		"updated_at": ts.UpdatedAt,
	}
	if ts.ClockOut != nil {
		if ts.ClockOut.Before(ts.ClockIn) {
			return models.Timesheet{}, ErrClockOutBeforeIn
		}
		ts.Minutes = models.ShiftMinutes(ts.ClockIn, *ts.ClockOut)
		set["clock_out"] = *ts.ClockOut
		set["minutes"] = ts.Minutes
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return models.Timesheet{}, err
	}
	if res.MatchedCount == 0 {
		return models.Timesheet{}, ErrNotFound
	}
	return ts, nil
}

// Delete removes a timesheet by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByRange returns shifts that clocked in within [from, to), oldest
// first. A non-nil employeeID restricts the result to one employee.
func (s *Store) ListByRange(ctx context.Context, from, to time.Time, employeeID *primitive.ObjectID) ([]models.Timesheet, error) {
	filter := bson.M{"clock_in": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}
	if employeeID != nil {
		filter["employee_id"] = *employeeID
	}
	opts := options.Find().SetSort(bson.D{{Key: "clock_in", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Timesheet
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertByClientID stores a completed shift recorded on a terminal while
// offline. Replaying the same ClientID returns the stored shift with
// created=false.
func (s *Store) UpsertByClientID(ctx context.Context, ts models.Timesheet) (stored models.Timesheet, created bool, err error) {
	ts.ClientID = strings.TrimSpace(ts.ClientID)
	if ts.ClientID == "" {
		return models.Timesheet{}, false, ErrClientIDRequired
	}
	if ts.ClockOut == nil {
		return models.Timesheet{}, false, ErrShiftIncomplete
	}
	in, out := ts.ClockIn.UTC(), ts.ClockOut.UTC()
	if out.Before(in) {
		return models.Timesheet{}, false, ErrClockOutBeforeIn
	}

	now := time.Now().UTC()
	ts.ID = primitive.NewObjectID()
	ts.ClockIn = in
	ts.ClockOut = &out
	ts.Open = false
	ts.Minutes = models.ShiftMinutes(in, out)
	ts.Notes = strings.TrimSpace(ts.Notes)
	ts.CreatedAt = now
	ts.UpdatedAt = now

	res, err := s.c.UpdateOne(ctx,
		bson.M{"client_id": ts.ClientID},
		bson.M{"$setOnInsert": ts},
		options.Update().SetUpsert(true),
	)
	if err != nil && !wafflemongo.IsDup(err) {
		return models.Timesheet{}, false, err
	}
	if err == nil && res.UpsertedCount == 1 {
		return ts, true, nil
	}

	existing, err := s.getByClientID(ctx, ts.ClientID)
	if err != nil {
		return models.Timesheet{}, false, err
	}
	return existing, false, nil
}
