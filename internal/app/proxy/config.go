// internal/app/proxy/config.go
package proxy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Storage backends for the cache buckets.
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config holds the counter proxy settings.
type Config struct {
	// Origin is the LaundryPOS server the terminal talks to.
	Origin string
	// Listen is the local address the terminal browser points at.
	Listen string

	Storage       string
	MongoURI      string
	MongoDatabase string

	// Refresh is how often the origin's cache generation is re-read.
	// Zero checks only at startup.
	Refresh         time.Duration
	ShutdownTimeout time.Duration
}

// Validate checks cfg and returns the parsed origin.
func (c Config) Validate() (*url.URL, error) {
	origin, err := url.Parse(strings.TrimSpace(c.Origin))
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if !origin.IsAbs() || origin.Host == "" {
		return nil, fmt.Errorf("origin %q must be an absolute http(s) url", c.Origin)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return nil, fmt.Errorf("origin %q must be an absolute http(s) url", c.Origin)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return nil, errors.New("listen address is required")
	}
	switch c.Storage {
	case StorageMemory:
	case StorageMongo:
		if strings.TrimSpace(c.MongoURI) == "" || strings.TrimSpace(c.MongoDatabase) == "" {
			return nil, errors.New("mongo storage needs mongo-uri and mongo-database")
		}
	default:
		return nil, fmt.Errorf("unknown storage %q (want %s or %s)", c.Storage, StorageMemory, StorageMongo)
	}
	if c.Refresh < 0 {
		return nil, errors.New("refresh must not be negative")
	}
	return origin, nil
}
