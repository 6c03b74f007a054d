package app

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/coralbridge/internal/config"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
	"github.com/dropDatabas3/coralbridge/internal/settings/fsstore"
	"github.com/dropDatabas3/coralbridge/internal/settings/pgstore"
	"github.com/dropDatabas3/coralbridge/internal/settings/redisstore"
	"github.com/dropDatabas3/coralbridge/internal/settings/sqlstore"
)

// openStore elige el backend de preferencias según settings_store.driver y
// registra su cierre y su chequeo de salud en c.
func openStore(ctx context.Context, cfg *config.Config, c *Container) (settings.Store, error) {
	sc := cfg.SettingsStore
	log := logger.From(ctx).With(logger.Component("app"), logger.String("settings_driver", sc.Driver))

	switch sc.Driver {
	case "memory":
		log.Warn("settings stored in memory: they are lost on restart")
		return settings.NewMemoryStore(nil), nil

	case "file":
		return fsstore.New(sc.Path), nil

	case "mysql", "sqlite":
		st, err := sqlstore.Open(ctx, sqlstore.Dialect(sc.Driver), sc.DSN, sc.Table)
		if err != nil {
			return nil, fmt.Errorf("app: settings store: %w", err)
		}
		c.onClose(st.Close)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		c.Checks["settings_store"] = func(ctx context.Context) error {
			_, err := st.Load(ctx)
			return err
		}
		return st, nil

	case "postgres":
		st, err := pgstore.New(ctx, sc.DSN, pgstore.Options{
			MaxConns:        int32(sc.Postgres.MaxConns),
			ConnMaxLifetime: config.Duration(sc.Postgres.ConnMaxLifetime, 0),
		})
		if err != nil {
			return nil, fmt.Errorf("app: settings store: %w", err)
		}
		c.onClose(func() error { st.Close(); return nil })
		if err := c.Metrics.RegisterPool(st.Stat); err != nil {
			return nil, fmt.Errorf("app: pool metrics: %w", err)
		}
		c.Checks["settings_store"] = func(ctx context.Context) error {
			_, err := st.Load(ctx)
			return err
		}
		return st, nil

	case "redis":
		st, rdb, err := redisstore.Dial(ctx, sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, sc.Redis.Key)
		if err != nil {
			return nil, fmt.Errorf("app: settings store: %w", err)
		}
		c.onClose(rdb.Close)
		c.Checks["settings_store"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return st, nil
	}
	return nil, fmt.Errorf("app: unknown settings driver %q", sc.Driver)
}
