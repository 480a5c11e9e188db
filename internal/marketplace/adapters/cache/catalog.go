// Package cache decorates marketplace ports with Redis read-through caching.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
)

const catalogOperation = "catalog"

var _ ports.CatalogReader = (*CatalogReader)(nil)

// CatalogReader is a cache-aside CatalogReader. Redis errors degrade to the
// underlying reader. Unknown items are not cached.
type CatalogReader struct {
	next  ports.CatalogReader
	cache cache.Cache
	ttl   time.Duration
}

func NewCatalogReader(next ports.CatalogReader, c cache.Cache, ttl time.Duration) *CatalogReader {
	return &CatalogReader{next: next, cache: c, ttl: ttl}
}

func (r *CatalogReader) GetItems(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	out := make(map[string]domain.CatalogItem, len(ids))
	var misses []string

	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		raw, err := r.cache.Get(ctx, r.cache.GenerateKey(catalogOperation, id))
		if err != nil {
			slog.WarnContext(ctx, "catalog cache read failed", "item_id", id, "error", err)
			misses = append(misses, id)
			continue
		}
		if raw == "" {
			misses = append(misses, id)
			continue
		}
		var item domain.CatalogItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			slog.WarnContext(ctx, "catalog cache entry corrupt", "item_id", id, "error", err)
			misses = append(misses, id)
			continue
		}
		out[id] = item
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := r.next.GetItems(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, item := range fetched {
		out[id] = item
		payload, err := json.Marshal(item)
		if err != nil {
			continue
		}
		if err := r.cache.Set(ctx, r.cache.GenerateKey(catalogOperation, id), payload, r.ttl); err != nil {
			slog.WarnContext(ctx, "catalog cache write failed", "item_id", id, "error", err)
		}
	}
	return out, nil
}

// CountItems always reads through.
func (r *CatalogReader) CountItems(ctx context.Context) (int64, error) {
	return r.next.CountItems(ctx)
}
