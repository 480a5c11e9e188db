package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jcmexdev/homechef-marketplace/internal/config"
	catalogcache "github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/cache"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/memory"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/mongo"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/app"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/auth"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/coordinator"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history/sqlite"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/infra/httpx"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
)

// store groups the repositories of one backend.
type store struct {
	carts     ports.CartRepository
	orders    ports.OrderRepository
	catalog   ports.CatalogReader
	directory ports.ActorDirectory
	tx        ports.Transactor
	close     func(ctx context.Context) error
}

type dependencies struct {
	Router  http.Handler
	closers []func(ctx context.Context) error
}

// Close releases the backends in reverse order of acquisition.
func (d *dependencies) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			slog.Error("close dependency", "error", err)
		}
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config) (_ *dependencies, err error) {
	deps := &dependencies{}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, st.close)

	hist, err := sqlite.Open(cfg.HistoryDBPath)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, func(context.Context) error { return hist.Close() })

	redisCache := openRedis(ctx, cfg)
	if redisCache != nil {
		deps.closers = append(deps.closers, func(context.Context) error { return redisCache.Close() })
	}

	cartCatalog := st.catalog
	if redisCache != nil {
		cartCatalog = catalogcache.NewCatalogReader(st.catalog, redisCache, cfg.CatalogCacheTTL)
	}

	retry := coordinator.DefaultRetryPolicy()
	retry.MaxTries = cfg.CartClearMaxRetries

	handler := httpx.NewHandler(
		app.NewCartService(st.carts, cartCatalog),
		app.NewCheckoutService(st.carts, st.orders, st.catalog, st.tx, hist, retry),
		app.NewLifecycleService(st.orders, hist),
		app.NewQueryService(st.orders, st.directory, st.catalog, hist),
	)
	deps.Router = httpx.NewRouter(handler, httpx.RouterConfig{
		Tokens:         auth.NewVerifier(cfg.JWTSecret),
		Idempotency:    redisCache,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	return deps, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := memory.NewStore()
		if cfg.CatalogSeedFile != "" {
			if err := mem.LoadSeedFile(cfg.CatalogSeedFile); err != nil {
				return nil, err
			}
		}
		slog.Warn("using in-memory store; data is lost on restart")
		return &store{
			carts:     mem.Carts(),
			orders:    mem.Orders(),
			catalog:   mem,
			directory: mem,
			tx:        mem,
			close:     func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongo.Connect(ctx, cfg.MongoURL)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return &store{
		carts:     mongo.NewCartRepository(db),
		orders:    mongo.NewOrderRepository(db),
		catalog:   mongo.NewCatalogReader(db),
		directory: mongo.NewDirectory(db),
		tx:        mongo.NewTransactor(client, cfg.MongoTransactions),
		close:     client.Disconnect,
	}, nil
}

// openRedis returns nil when Redis is not configured or not reachable. The
// service then runs without the catalog cache and idempotent replay.
func openRedis(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	c := cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
		_ = c.Close()
		return nil
	}
	return c
}
