// internal/domain/models/cacheentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CacheBucket records that a named offline cache bucket exists, even
// while it holds no entries.
type CacheBucket struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"created_at"`
}

// CacheEntry is one stored response in an offline cache bucket. Key is the
// absolute request URL without fragment.
type CacheEntry struct {
	ID       primitive.ObjectID  `bson:"_id"`
	Bucket   string              `bson:"bucket"`
	Key      string              `bson:"key"`
	URL      string              `bson:"url"`
	Status   int                 `bson:"status"`
	Header   map[string][]string `bson:"header,omitempty"`
	Body     []byte              `bson:"body"`
	StoredAt time.Time           `bson:"stored_at"`
}
