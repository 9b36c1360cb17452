package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storeswitch/itemapi/internal/config"
)

// startupPingTimeout bounds the Redis connectivity check at construction.
const startupPingTimeout = 3 * time.Second

// Provider selects and owns the active storage backend. It is built once
// at startup from the configured storage type and holds whatever long-lived
// handle that backend needs: the shared in-memory store, the SQLite
// connection pool, or the singleton Redis client. Requests obtain the
// active backend through Store; Provider tears the handle down on Close.
type Provider struct {
	logger *zap.Logger

	memory    *MemoryStore
	db        *sql.DB
	redis     *redis.Client
	closeOnce sync.Once
}

// NewProvider constructs the backend selected by the configuration.
//
// An unrecognized storage type halts construction with an error rather than
// defaulting to a working backend. For SQLite the schema is initialized
// before the provider is returned; for Redis the client is created and
// pinged, but a failed ping is only logged; the process starts anyway and
// individual calls surface connection errors until the server is reachable.
func NewProvider(cfg *config.Config, logger *zap.Logger) (*Provider, error) {
	p := &Provider{logger: logger}

	switch cfg.StorageType {
	case config.StorageMemory:
		p.memory = NewMemoryStore()
		logger.Info("using in-memory storage backend")

	case config.StorageSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite backend: %w", err)
		}
		p.db = db
		logger.Info("using sqlite storage backend",
			zap.String("path", cfg.SQLitePath),
		)

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed, continuing startup",
				zap.String("addr", cfg.RedisAddr),
				zap.Error(err),
			)
		} else {
			logger.Info("using redis storage backend",
				zap.String("addr", cfg.RedisAddr),
				zap.Int("db", cfg.RedisDB),
			)
		}
		p.redis = client

	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.StorageType)
	}

	return p, nil
}

// Store returns the active backend. The in-memory store and the Redis
// client are shared across all callers; the SQLite store is a stateless
// wrapper over the shared connection pool, so handing out a fresh value per
// call is free.
func (p *Provider) Store() Store {
	switch {
	case p.memory != nil:
		return p.memory
	case p.db != nil:
		return NewSQLiteStore(p.db)
	default:
		return NewRedisStore(p.redis)
	}
}

// Close releases whatever long-lived handle the active backend holds. It is
// idempotent and safe to call on any backend; backends without a handle are
// a no-op.
func (p *Provider) Close() error {
	var closeErr error

	p.closeOnce.Do(func() {
		if p.db != nil {
			p.logger.Info("closing sqlite database")
			closeErr = p.db.Close()
		}

		if p.redis != nil {
			p.logger.Info("closing redis client")
			closeErr = p.redis.Close()
		}
	})

	return closeErr
}
