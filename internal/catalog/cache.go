package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache guarda a parte do produto que não depende do principal
type ProductCache interface {
	Get(ctx context.Context, productID uuid.UUID) (*ProductDetail, error)
	Set(ctx context.Context, product *ProductDetail) error
	Delete(ctx context.Context, productIDs ...uuid.UUID) error
}

// RedisProductCache implementa ProductCache sobre o Redis
type RedisProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
	hits    metric.Int64Counter
	misses  metric.Int64Counter
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) (*RedisProductCache, error) {
	meter := otel.Meter("marketplace/catalog")

	hits, err := meter.Int64Counter("product_cache.hits",
		metric.WithDescription("Product detail lookups served from cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}
	misses, err := meter.Int64Counter("product_cache.misses",
		metric.WithDescription("Product detail lookups that fell through to the database"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	return &RedisProductCache{client: client, baseTTL: ttl, hits: hits, misses: misses}, nil
}

func (r *RedisProductCache) Get(ctx context.Context, productID uuid.UUID) (*ProductDetail, error) {
	data, err := r.client.Get(ctx, cacheKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(ctx, 1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product ProductDetail
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}

	r.hits.Add(ctx, 1)
	return &product, nil
}

// Set grava o produto com jitter no TTL para espalhar as expirações
func (r *RedisProductCache) Set(ctx context.Context, product *ProductDetail) error {
	cached := *product
	cached.IsFavorite = false

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	ttl := r.baseTTL
	if ttl > time.Minute {
		ttl += time.Duration(rand.Int63n(int64(ttl / 5)))
	}

	if err := r.client.Set(ctx, cacheKey(product.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisProductCache) Delete(ctx context.Context, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = cacheKey(id)
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s", productID)
}

// NoopProductCache é usado quando o Redis não está configurado
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, uuid.UUID) (*ProductDetail, error) {
	return nil, ErrCacheMiss
}

func (NoopProductCache) Set(context.Context, *ProductDetail) error {
	return nil
}

func (NoopProductCache) Delete(context.Context, ...uuid.UUID) error {
	return nil
}
