// Package config loads the service settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr       string `envconfig:"HTTP_ADDR"        default:":8080"`
	GRPCHealthAddr string `envconfig:"GRPC_HEALTH_ADDR" default:":9090"`
	LogLevel       string `envconfig:"LOG_LEVEL"        default:"info"`

	ServiceName    string        `envconfig:"OTEL_SERVICE_NAME"            default:"marketplace-api"`
	TracingEnabled bool          `envconfig:"TRACING_ENABLED"              default:"false"`
	TracesExporter string        `envconfig:"OTEL_TRACES_EXPORTER"         default:"otlp"`
	OTLPEndpoint   string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"  default:"localhost:4317"`
	Environment    string        `envconfig:"OTEL_RESOURCE_ATTRIBUTES_ENV" default:"local"`
	SampleRatio    float64       `envconfig:"OTEL_TRACES_SAMPLER_ARG"      default:"1"`
	MetricInterval time.Duration `envconfig:"OTEL_METRIC_EXPORT_INTERVAL"  default:"30s"`

	StoreDriver       string `envconfig:"STORE_DRIVER"       default:"mongo"`
	MongoURL          string `envconfig:"MONGO_URL"          default:"mongodb://localhost:27017"`
	MongoDatabase     string `envconfig:"MONGO_DATABASE"     default:"homechef"`
	MongoTransactions bool   `envconfig:"MONGO_TRANSACTIONS" default:"false"`
	CatalogSeedFile   string `envconfig:"CATALOG_SEED_FILE"`

	// RedisAddr is optional. Without it the catalog is read uncached and
	// idempotency keys are ignored.
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
	IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL"   default:"24h"`

	HistoryDBPath string `envconfig:"HISTORY_DB_PATH" default:"history.db"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	CartClearMaxRetries uint `envconfig:"CART_CLEAR_MAX_RETRIES" default:"5"`
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: load %s: %w", f, err)
			}
			continue
		}
		slog.Info("loaded configuration file", "file", f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		return fmt.Errorf("config: OTEL_TRACES_SAMPLER_ARG must be within (0, 1], got %v", c.SampleRatio)
	}
	if c.CartClearMaxRetries == 0 {
		return errors.New("config: CART_CLEAR_MAX_RETRIES must be at least 1")
	}
	return nil
}
