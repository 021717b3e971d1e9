package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"fittrack/api/internal/config"
	"fittrack/api/internal/db"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/repository/memstore"
	"fittrack/api/internal/repository/mongostore"
	"fittrack/api/internal/repository/pgstore"
)

// openStore picks the backend from the DATABASE_URL scheme. The returned
// close func releases the underlying connections.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (identity.Store, func(), error) {
	parsed, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	switch parsed.Scheme {
	case "mongodb", "mongodb+srv":
		client, err := mongostore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := mongostore.New(ctx, client, cfg.DatabaseName)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("using mongo store", "database", cfg.DatabaseName)
		return store, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect error", "error", err)
			}
		}, nil

	case "postgres", "postgresql":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return pgstore.New(pool), pool.Close, nil

	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DATABASE_URL scheme %q", parsed.Scheme)
	}
}
