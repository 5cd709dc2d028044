package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"grid-reservation/internal/infra/db"
	"grid-reservation/internal/infra/postgres"
	"grid-reservation/internal/infra/sqlite"
	"grid-reservation/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// DBModule opens only the connection STORE_DRIVER asks for; the other
// provider yields nil.
var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
		NewSQLiteDB,
	),
)

func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.Store.Driver != config.StorePostgres {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("PostgreSQLに接続しました", "host", cfg.DB.Host, "database", cfg.DB.DBName)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}

func NewSQLiteDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Store.Driver != config.StoreSQLite {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, cleanup, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("SQLiteを開きました", "path", cfg.SQLite.Path)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return conn, nil
}
