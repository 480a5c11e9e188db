package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/memory"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
)

// countingReader counts how many ids reach the backing reader.
type countingReader struct {
	next    *memory.Store
	fetched int
}

func (c *countingReader) GetItems(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	c.fetched += len(ids)
	return c.next.GetItems(ctx, ids)
}

func (c *countingReader) CountItems(ctx context.Context) (int64, error) {
	return c.next.CountItems(ctx)
}

func setup(t *testing.T) (*CatalogReader, *countingReader, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "marketplace")

	store := memory.NewStore()
	store.PutItem(domain.CatalogItem{ID: "a", ChefID: "chef-1", Name: "Dal", Price: decimal.RequireFromString("12.40"), Available: true})
	backing := &countingReader{next: store}
	return NewCatalogReader(backing, c, time.Minute), backing, store, mr
}

func TestCatalogReader_ReadsThrough(t *testing.T) {
	r, backing, _, mr := setup(t)
	ctx := context.Background()

	items, err := r.GetItems(ctx, []string{"a", "ghost"})
	require.NoError(t, err)
	require.Contains(t, items, "a")
	assert.NotContains(t, items, "ghost")
	assert.Equal(t, 2, backing.fetched)
	assert.True(t, mr.Exists("marketplace:catalog:a"))

	items, err = r.GetItems(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, backing.fetched)
	assert.True(t, items["a"].Price.Equal(decimal.RequireFromString("12.4")))
	assert.Equal(t, "chef-1", items["a"].ChefID)
}

func TestCatalogReader_ExpiresAfterTTL(t *testing.T) {
	r, backing, store, mr := setup(t)
	ctx := context.Background()

	_, err := r.GetItems(ctx, []string{"a"})
	require.NoError(t, err)

	store.PutItem(domain.CatalogItem{ID: "a", ChefID: "chef-1", Price: decimal.NewFromInt(20), Available: true})
	items, err := r.GetItems(ctx, []string{"a"})
	require.NoError(t, err)
	assert.True(t, items["a"].Price.Equal(decimal.RequireFromString("12.4")), "stale until expiry")

	mr.FastForward(2 * time.Minute)
	items, err = r.GetItems(ctx, []string{"a"})
	require.NoError(t, err)
	assert.True(t, items["a"].Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 2, backing.fetched)
}

func TestCatalogReader_CountBypassesCache(t *testing.T) {
	r, _, store, mr := setup(t)
	store.PutItem(domain.CatalogItem{ID: "b", ChefID: "chef-1", Price: decimal.NewFromInt(5), Available: true})

	n, err := r.CountItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, mr.Keys())
}

func TestCatalogReader_RedisDownFallsBack(t *testing.T) {
	r, backing, _, mr := setup(t)
	mr.Close()

	items, err := r.GetItems(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Contains(t, items, "a")
	assert.Equal(t, 1, backing.fetched)
}
