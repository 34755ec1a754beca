// internal/domain/models/timesheet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timesheet is one shift. While Open, ClockOut is nil; a partial unique
// index on employee_id where open=true keeps one open shift per employee.
type Timesheet struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ClientID   string             `bson:"client_id,omitempty" json:"client_id,omitempty"`
	EmployeeID primitive.ObjectID `bson:"employee_id" json:"employee_id"`
	ClockIn    time.Time          `bson:"clock_in" json:"clock_in"`
	ClockOut   *time.Time         `bson:"clock_out,omitempty" json:"clock_out,omitempty"`
	Open       bool               `bson:"open" json:"open"`
	Minutes    int                `bson:"minutes" json:"minutes"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// ShiftMinutes returns the whole minutes between in and out, never negative.
func ShiftMinutes(in, out time.Time) int {
	d := out.Sub(in)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
