package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/redis"
)

// Store is the byte-level backend of a QueryCache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Flush removes every cached entry and reports how many were removed.
	Flush(ctx context.Context) (int64, error)
	Name() string
}

// RedisStore keeps entries in Redis with a TTL.
type RedisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *pkgredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.client.Lookup(ctx, key)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Store(ctx, key, value, s.ttl)
}

func (s *RedisStore) Flush(ctx context.Context) (int64, error) {
	return s.client.DeletePrefix(ctx, keyPrefix)
}

func (s *RedisStore) Name() string { return "redis" }

// LRUStore is the in-process fallback used when Redis is disabled or
// unreachable.
type LRUStore struct {
	entries *lru.Cache[string, []byte]
}

func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		size = 1024
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{entries: entries}, nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.entries.Get(key)
	return v, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.entries.Add(key, value)
	return nil
}

func (s *LRUStore) Flush(context.Context) (int64, error) {
	n := int64(s.entries.Len())
	s.entries.Purge()
	return n, nil
}

func (s *LRUStore) Name() string { return "lru" }
