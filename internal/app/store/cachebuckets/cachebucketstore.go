// internal/app/store/cachebuckets/cachebucketstore.go
package cachebucketstore

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps offline cache buckets in MongoDB so a proxy restart does not
// lose the installed generation. Bucket names live in cache_buckets and
// their entries in cache_entries.
type Store struct {
	buckets *mongo.Collection
	entries *mongo.Collection
}

var _ offline.Storage = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		buckets: db.Collection("cache_buckets"),
		entries: db.Collection("cache_entries"),
	}
}

func (s *Store) Open(ctx context.Context, name string) (offline.Bucket, error) {
	_, err := s.buckets.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	// A concurrent Open of the same name may lose the upsert race.
	if err != nil && !wafflemongo.IsDup(err) {
		return nil, err
	}
	return &bucket{s: s, name: name}, nil
}

func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	n, err := s.buckets.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"name": 1})
	cur, err := s.buckets.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.CacheBucket
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}

// Delete removes the bucket record, then its entries.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.buckets.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	if _, err := s.entries.DeleteMany(ctx, bson.M{"bucket": name}); err != nil {
		return res.DeletedCount > 0, err
	}
	return res.DeletedCount > 0, nil
}

type bucket struct {
	s    *Store
	name string
}

func (b *bucket) Name() string { return b.name }

func (b *bucket) Match(ctx context.Context, key string) (offline.Response, error) {
	var e models.CacheEntry
	err := b.s.entries.FindOne(ctx, bson.M{"bucket": b.name, "key": key}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return offline.Response{}, offline.ErrNotFound
	}
	if err != nil {
		return offline.Response{}, err
	}
	return offline.Response{
		URL:      e.URL,
		Status:   e.Status,
		Header:   http.Header(e.Header),
		Body:     e.Body,
		StoredAt: e.StoredAt,
	}, nil
}

func (b *bucket) Put(ctx context.Context, key string, resp offline.Response) error {
	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now().UTC()
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}

	_, err := b.s.entries.UpdateOne(ctx,
		bson.M{"bucket": b.name, "key": key},
		bson.M{
			"$set": bson.M{
				"url":       resp.URL,
				"status":    resp.Status,
				"header":    map[string][]string(resp.Header),
				"body":      body,
				"stored_at": storedAt,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (b *bucket) Keys(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "key", Value: 1}}).
		SetProjection(bson.M{"key": 1})
	cur, err := b.s.entries.Find(ctx, bson.M{"bucket": b.name}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := []string{}
	for cur.Next(ctx) {
		var row struct {
			Key string `bson:"key"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		keys = append(keys, row.Key)
	}
	return keys, cur.Err()
}
