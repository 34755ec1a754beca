// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for a single-record JSON request.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxSyncBody is the maximum size for an offline sync batch.
	MaxSyncBody = 4 << 20 // 4 MB

	// MaxSyncRecords caps the records of one kind in a sync batch.
	MaxSyncRecords = 1000
)
