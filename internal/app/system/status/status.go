// internal/app/system/status/status.go
package status

// Record status values shared by employees and other switchable records.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}
