//go:build e2e

package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/infra/ledgertest"
	"grid-reservation/internal/infra/postgres"
	"grid-reservation/internal/infra/uow"
	"grid-reservation/internal/pkg/clock"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/booking"
	"grid-reservation/internal/usecase/shared"
	"grid-reservation/tests/common/dbtest"
	"grid-reservation/tests/e2e"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestPostgresLedger(t *testing.T) {
	pool := e2e.SetupDatabase(t)

	ls := &ledgertest.LedgerSuite{}
	ls.NewLedger = func() shared.Ledger {
		require.NoError(ls.T(), dbtest.TruncateAll(pool))
		return postgres.NewLedger(uow.NewPostgresUoW(pool))
	}
	suite.Run(t, ls)
}

func TestPostgresUserStore(t *testing.T) {
	pool := e2e.SetupDatabase(t)
	require.NoError(t, dbtest.TruncateAll(pool))

	ctx := context.Background()
	store := postgres.NewUserStore(pool)

	jane, err := user.NewUser("jane", "Jane", user.RoleCustomer)
	require.NoError(t, err)

	id, err := store.CreateUser(ctx, jane)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = store.CreateUser(ctx, jane)
	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey), "got %v", err)

	got, err := store.FindUser(ctx, "jane")
	require.NoError(t, err)
	got.Deactivate()
	require.NoError(t, store.UpdateUser(ctx, got))

	list, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive())

	ghost, err := user.NewUser("ghost", "Ghost", user.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, infra.IsKind(store.UpdateUser(ctx, ghost), infra.KindNotFound))
}

// Two engines over one database stand in for two service processes; the
// equipment row lock must keep the single harvester from being double booked.
func TestConcurrentReserveAcrossEngines(t *testing.T) {
	pool := e2e.SetupDatabase(t)
	require.NoError(t, dbtest.TruncateAll(pool))

	ctx := context.Background()
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	newEngine := func() *booking.Engine {
		return booking.NewEngine(
			postgres.NewLedger(uow.NewPostgresUoW(pool)),
			reservation.NewDefaultPriceCalculator(),
			clock.NewMockClock(now),
			nil,
		)
	}
	engines := []*booking.Engine{newEngine(), newEngine()}

	catalog, err := equipment.Build(equipment.DefaultItems())
	require.NoError(t, err)
	require.NoError(t, engines[0].InstallCatalog(ctx, catalog))

	start := time.Date(2030, time.April, 14, 9, 0, 0, 0, time.UTC)
	params := booking.ReserveParams{
		Customer:  "John",
		Equipment: "1.21 gigawatt lightning harvester",
		Start:     start,
		End:       start.Add(time.Hour),
		Location:  reservation.NewLocation(1, 4),
	}

	const attempts = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		granted  int
		rejected int
	)
	for i := range attempts {
		wg.Add(1)
		go func(e *booking.Engine) {
			defer wg.Done()
			_, err := e.Reserve(ctx, params)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case errs.Is(err, booking.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(engines[i%len(engines)])
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 1, dbtest.CountReservations(t, pool, params.Equipment, true))
}
