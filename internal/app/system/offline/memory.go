package offline

import (
	"context"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStorage keeps buckets in process memory. Entries never expire; a
// bucket disappears only when it is deleted.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]*memoryBucket)}
}

func (s *MemoryStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{
			name:    name,
			entries: gocache.New(gocache.NoExpiration, 0),
		}
		s.buckets[name] = b
	}
	return b, nil
}

func (s *MemoryStorage) Has(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[name]
	return ok, nil
}

func (s *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for n := range s.buckets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return false, nil
	}
	b.entries.Flush()
	delete(s.buckets, name)
	return true, nil
}

type memoryBucket struct {
	name    string
	entries *gocache.Cache
}

func (b *memoryBucket) Name() string { return b.name }

func (b *memoryBucket) Match(ctx context.Context, key string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	v, ok := b.entries.Get(key)
	if !ok {
		return Response{}, ErrNotFound
	}
	return v.(Response), nil
}

func (b *memoryBucket) Put(ctx context.Context, key string, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.entries.Set(key, resp, gocache.NoExpiration)
	return nil
}

func (b *memoryBucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := b.entries.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
