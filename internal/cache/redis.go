package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/vaxbooking/config"
	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the key is not cached.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL: catalogTTL,
	}
}

// NewRedisCacheWithClient is used by tests to inject a miniredis-backed client.
func NewRedisCacheWithClient(client *redis.Client, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, catalogTTL: catalogTTL}
}

func (c *RedisCache) GetCatalogItem(ctx context.Context, kind domain.LineItemKind, id uuid.UUID) (*domain.CatalogItem, error) {
	data, err := c.client.Get(ctx, catalogKey(kind, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}

	var item domain.CatalogItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *RedisCache) SetCatalogItem(ctx context.Context, item *domain.CatalogItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey(item.Kind, item.ID), payload, c.catalogTTL).Err()
}

// SeenConfirmation is a fast-path dedup for retried processor callbacks.
// The payment intent row stays the source of truth; this only short-cuts
// repeat deliveries within the TTL.
func (c *RedisCache) SeenConfirmation(ctx context.Context, orderID uuid.UUID, confirmationID string) (bool, error) {
	n, err := c.client.Exists(ctx, confirmationKey(orderID, confirmationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) MarkConfirmationSeen(ctx context.Context, orderID uuid.UUID, confirmationID string, ttl time.Duration) error {
	return c.client.Set(ctx, confirmationKey(orderID, confirmationID), "seen", ttl).Err()
}

func catalogKey(kind domain.LineItemKind, id uuid.UUID) string {
	return fmt.Sprintf("cache:catalog:%s:%s", kind, id)
}

func confirmationKey(orderID uuid.UUID, confirmationID string) string {
	return fmt.Sprintf("seen:confirm:%s:%s", orderID, confirmationID)
}
