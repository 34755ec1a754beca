// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is the LaundryPOS side: the database, the installable app
// surface, the offline cache generation, email and background work.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string // Database name within MongoDB
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectTimeout time.Duration

	// Installable app (web app manifest and shell)
	SiteName        string // e.g. "Suds Laundromat"
	ShortName       string // home screen label; defaults to SiteName
	ThemeColor      string
	BackgroundColor string

	// Offline cache generation. The bucket name is prefix-version, e.g.
	// "laundrypos-v1"; bump the version to supersede every terminal's cache.
	OfflineCachePrefix  string
	OfflineCacheVersion string
	OfflineAssets       []string // asset manifest; defaults to offline.DefaultAssets

	// Email (shoutrrr service URLs)
	MailURLs []string
	MailHTML bool

	// Base URL for links in email (e.g., "https://pos.example.com")
	BaseURL string

	// Background work
	LowStockInterval time.Duration // 0 disables low-stock alerts
	AuditRetention   time.Duration // 0 keeps audit events forever

	// Audit logging modes: all, db, log, off
	AuditLogChanges string
	AuditLogSync    string

	// Rate limits per client IP
	SyncRateLimit   int
	SyncRateWindow  time.Duration
	EmailRateLimit  int
	EmailRateWindow time.Duration
}
