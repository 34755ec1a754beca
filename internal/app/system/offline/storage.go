package offline

import (
	"context"
	"fmt"
	"strings"
)

// Bucket is a single named cache bucket mapping request keys to responses.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// Match returns the response stored under key, or ErrNotFound.
	Match(ctx context.Context, key string) (Response, error)

	// Put stores resp under key, replacing any previous entry.
	Put(ctx context.Context, key string, resp Response) error

	// Keys lists the stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}

// Storage is the set of buckets available to a worker.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Open returns the bucket with the given name, creating it if absent.
	Open(ctx context.Context, name string) (Bucket, error)

	// Has reports whether a bucket with the given name exists.
	Has(ctx context.Context, name string) (bool, error)

	// Names lists all bucket names in ascending order.
	Names(ctx context.Context) ([]string, error)

	// Delete removes the named bucket and all of its entries. It reports
	// whether a bucket was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

// Version identifies a cache generation. Bumping Tag supersedes the bucket
// of the previous generation; it is never mutated in place.
type Version struct {
	Prefix string
	Tag    string
}

// ParseVersion splits a bucket name like "laundrypos-v1" at its last dash.
func ParseVersion(name string) (Version, error) {
	i := strings.LastIndex(name, "-")
	if i <= 0 || i == len(name)-1 {
		return Version{}, fmt.Errorf("offline: malformed bucket name %q", name)
	}
	return Version{Prefix: name[:i], Tag: name[i+1:]}, nil
}

// BucketName returns the name of the bucket owned by this version.
func (v Version) BucketName() string {
	return v.Prefix + "-" + v.Tag
}

func (v Version) String() string { return v.BucketName() }

// Validate rejects empty components.
func (v Version) Validate() error {
	if strings.TrimSpace(v.Prefix) == "" {
		return fmt.Errorf("offline: version prefix is required")
	}
	if strings.TrimSpace(v.Tag) == "" {
		return fmt.Errorf("offline: version tag is required")
	}
	if strings.Contains(v.Tag, "-") {
		return fmt.Errorf("offline: version tag %q must not contain '-'", v.Tag)
	}
	return nil
}
