// internal/domain/models/employee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee roles.
const (
	RoleAttendant = "attendant"
	RoleManager   = "manager"
)

// EmployeeRoles is the canonical list of roles, used for validation and the
// collection schema.
var EmployeeRoles = []string{RoleAttendant, RoleManager}

// Employee is a person who works the counter and clocks shifts.
type Employee struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	FullName        string             `bson:"full_name" json:"full_name"`
	FullNameCI      string             `bson:"full_name_ci" json:"-"` // ← always stored
	Role            string             `bson:"role" json:"role"`
	HourlyRateCents int64              `bson:"hourly_rate_cents" json:"hourly_rate_cents"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
