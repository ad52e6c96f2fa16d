package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const versionKey = "products:ver"

// ErrCacheMiss is returned when the requested listing is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ListCache keeps product listings in redis. Writes never delete cached
// entries directly: every mutation bumps a version counter and listings are
// keyed by the current version, so stale generations simply age out via TTL.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl}
}

func (c *ListCache) Get(ctx context.Context, query string, tags []string) ([]models.Product, error) {
	key, err := c.key(ctx, query, tags)
	if err != nil {
		return nil, err
	}

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var products []models.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, err
	}

	return products, nil
}

func (c *ListCache) Set(ctx context.Context, query string, tags []string, products []models.Product) error {
	key, err := c.key(ctx, query, tags)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(products)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate bumps the generation counter so subsequent reads key into a
// fresh, empty generation.
func (c *ListCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey).Err()
}

func (c *ListCache) key(ctx context.Context, query string, tags []string) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}

	return fmt.Sprintf("products:v%d:q=%s:tags=%s", ver, query, strings.Join(tags, ",")), nil
}
