package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return NewRedisCacheWithClient(client, 5*time.Minute), server
}

func TestCatalogItem_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	item := &domain.CatalogItem{
		ID:        uuid.New(),
		Kind:      domain.LineItemCombo,
		Name:      "Infant pack",
		Price:     1000000,
		SaleOff:   25,
		Available: true,
	}

	require.NoError(t, cache.SetCatalogItem(ctx, item))

	got, err := cache.GetCatalogItem(ctx, domain.LineItemCombo, item.ID)

	assert.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestCatalogItem_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	got, err := cache.GetCatalogItem(context.Background(), domain.LineItemVaccine, uuid.New())

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCatalogItem_KindIsPartOfTheKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	item := &domain.CatalogItem{ID: uuid.New(), Kind: domain.LineItemVaccine, Price: 620000, Available: true}
	require.NoError(t, cache.SetCatalogItem(ctx, item))

	got, err := cache.GetCatalogItem(ctx, domain.LineItemCombo, item.ID)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestConfirmationSeen(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()
	orderID := uuid.New()

	seen, err := cache.SeenConfirmation(ctx, orderID, "pay_abc")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, cache.MarkConfirmationSeen(ctx, orderID, "pay_abc", time.Hour))

	seen, err = cache.SeenConfirmation(ctx, orderID, "pay_abc")
	require.NoError(t, err)
	assert.True(t, seen)

	// A different confirmation id for the same order is not deduped.
	seen, err = cache.SeenConfirmation(ctx, orderID, "pay_xyz")
	require.NoError(t, err)
	assert.False(t, seen)

	server.FastForward(2 * time.Hour)

	seen, err = cache.SeenConfirmation(ctx, orderID, "pay_abc")
	require.NoError(t, err)
	assert.False(t, seen)
}
