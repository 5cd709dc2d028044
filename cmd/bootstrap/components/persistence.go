package components

import (
	"database/sql"
	"fmt"

	"grid-reservation/internal/infra/memory"
	"grid-reservation/internal/infra/postgres"
	"grid-reservation/internal/infra/sqlite"
	"grid-reservation/internal/infra/uow"
	"grid-reservation/internal/pkg/config"
	"grid-reservation/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewStores,
	),
)

type StoreParams struct {
	fx.In

	Config config.Config
	Pool   *pgxpool.Pool `optional:"true"`
	SQLite *sql.DB       `optional:"true"`
}

type Stores struct {
	fx.Out

	Ledger shared.Ledger
	Users  shared.UserStore
}

func NewStores(p StoreParams) (Stores, error) {
	switch p.Config.Store.Driver {
	case config.StorePostgres:
		if p.Pool == nil {
			return Stores{}, fmt.Errorf("store driver %s needs a connection pool", config.StorePostgres)
		}
		return Stores{
			Ledger: postgres.NewLedger(uow.NewPostgresUoW(p.Pool)),
			Users:  postgres.NewUserStore(p.Pool),
		}, nil
	case config.StoreSQLite:
		if p.SQLite == nil {
			return Stores{}, fmt.Errorf("store driver %s needs an open database", config.StoreSQLite)
		}
		return Stores{
			Ledger: sqlite.NewLedger(p.SQLite),
			Users:  sqlite.NewUserStore(p.SQLite),
		}, nil
	case config.StoreMemory:
		return Stores{
			Ledger: memory.NewLedger(),
			Users:  memory.NewUserStore(),
		}, nil
	default:
		return Stores{}, fmt.Errorf("unsupported store driver %q", p.Config.Store.Driver)
	}
}
