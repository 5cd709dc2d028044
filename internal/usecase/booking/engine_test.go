//go:build unit

package booking_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra/memory"
	"grid-reservation/internal/pkg/clock"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/booking"
	"grid-reservation/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scanner   = "multi-phasic radiation scanner"
	scooper   = "ore scooper"
	harvester = "1.21 gigawatt lightning harvester"
)

var now = time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	engine   *booking.Engine
	clock    *clock.MockClock
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMockClock(now)
	rec := &fakeRecorder{}
	engine := booking.NewEngine(memory.NewLedger(), reservation.NewDefaultPriceCalculator(), clk, nil, booking.WithRecorder(rec))

	catalog, err := equipment.Load("")
	require.NoError(t, err)
	require.NoError(t, engine.InstallCatalog(context.Background(), catalog))

	return &fixture{engine: engine, clock: clk, recorder: rec}
}

func (f *fixture) reserve(t *testing.T, customer, eq string, start time.Time, d time.Duration) (*booking.Receipt, error) {
	t.Helper()
	return f.engine.Reserve(context.Background(), booking.ReserveParams{
		Customer:  customer,
		Equipment: eq,
		Start:     start,
		End:       start.Add(d),
		Location:  reservation.NewLocation(5, 5),
	})
}

func ids(list []*reservation.Reservation) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID())
	}
	return out
}

func TestReserve(t *testing.T) {
	t.Run("capacity is enforced and freed by cancel", func(t *testing.T) {
		f := newFixture(t)
		start := now.Add(72 * time.Hour)

		var receipts []*booking.Receipt
		for _, customer := range []string{"a", "b", "c", "d"} {
			r, err := f.reserve(t, customer, scooper, start, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, 500.0, r.DownPayment)
			receipts = append(receipts, r)
		}

		_, err := f.reserve(t, "e", scooper, start.Add(30*time.Minute), time.Hour)
		require.ErrorIs(t, err, booking.ErrCapacityExceeded)

		_, err = f.engine.Cancel(context.Background(), receipts[2].ReservationID)
		require.NoError(t, err)

		fifth, err := f.reserve(t, "e", scooper, start.Add(30*time.Minute), time.Hour)
		require.NoError(t, err)
		assert.Greater(t, fifth.ReservationID, receipts[3].ReservationID)
	})

	t.Run("adjacent slots do not compete", func(t *testing.T) {
		f := newFixture(t)
		start := now.Add(72 * time.Hour)

		_, err := f.reserve(t, "John", harvester, start, time.Hour)
		require.NoError(t, err)
		_, err = f.reserve(t, "Jane", harvester, start.Add(time.Hour), time.Hour)
		require.NoError(t, err)
		_, err = f.reserve(t, "Jane", harvester, start.Add(-time.Hour), time.Hour)
		require.NoError(t, err)

		_, err = f.reserve(t, "Bob", harvester, start.Add(30*time.Minute), time.Hour)
		require.ErrorIs(t, err, booking.ErrCapacityExceeded)
	})

	t.Run("equipment name must match exactly", func(t *testing.T) {
		f := newFixture(t)

		for _, name := range []string{"Ore Scooper", "ore scooper ", "flux capacitor", ""} {
			_, err := f.reserve(t, "Bob", name, now.Add(time.Hour), time.Hour)
			assert.ErrorIs(t, err, booking.ErrEquipmentNotFound, name)
		}
	})

	t.Run("end must be after start", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.reserve(t, "Bob", scooper, now.Add(time.Hour), 0)
		require.ErrorIs(t, err, booking.ErrInvalidInterval)
		_, err = f.reserve(t, "Bob", scooper, now.Add(time.Hour), -time.Hour)
		require.ErrorIs(t, err, booking.ErrInvalidInterval)
	})

	t.Run("customer is required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.reserve(t, "  ", scooper, now.Add(time.Hour), time.Hour)
		require.ErrorIs(t, err, booking.ErrInvalidCustomer)
	})

	t.Run("pricing", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.reserve(t, "Jane", scanner, now.AddDate(0, 0, 7), 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1980.0, r.Cost)
		assert.Equal(t, 990.0, r.DownPayment)

		r, err = f.reserve(t, "Jane", scanner, now.AddDate(0, 0, 14), 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1485.0, r.Cost)

		r, err = f.reserve(t, "Jane", scanner, now.AddDate(0, 0, 3), 26*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1980.0, r.Cost, "only the sub-day part is billed")
	})

	t.Run("ids increase and are never reused", func(t *testing.T) {
		f := newFixture(t)

		var last int64
		for i := 0; i < 5; i++ {
			r, err := f.reserve(t, "Jane", scooper, now.AddDate(0, 0, i+1), time.Hour)
			require.NoError(t, err)
			assert.Greater(t, r.ReservationID, last)
			last = r.ReservationID

			if i%2 == 0 {
				_, err := f.engine.Cancel(context.Background(), r.ReservationID)
				require.NoError(t, err)
			}
		}
		assert.Equal(t, int64(5), last)
	})
}

func newCapacityEngine(t *testing.T, name string, capacity int) *booking.Engine {
	t.Helper()
	engine := booking.NewEngine(memory.NewLedger(), reservation.NewDefaultPriceCalculator(), clock.NewMockClock(now), nil)
	require.NoError(t, engine.InstallCatalog(context.Background(),
		[]*equipment.Equipment{equipment.ReconstructEquipment(name, capacity, 100)}))
	return engine
}

func TestCapacityHolds(t *testing.T) {
	const eq = "grav plow"
	rng := rand.New(rand.NewPCG(20230401, 7))
	pivot := now.Add(10 * 24 * time.Hour)

	t.Run("the booking past capacity fails at a shared instant", func(t *testing.T) {
		for capacity := 1; capacity <= 6; capacity++ {
			for trial := range 20 {
				t.Run(fmt.Sprintf("capacity=%d/trial=%d", capacity, trial), func(t *testing.T) {
					engine := newCapacityEngine(t, eq, capacity)

					// every slot covers pivot, so all of them overlap one another
					book := func(i int) error {
						start := pivot.Add(-time.Duration(1+rng.IntN(180)) * time.Minute)
						end := pivot.Add(time.Duration(1+rng.IntN(180)) * time.Minute)
						_, err := engine.Reserve(context.Background(), booking.ReserveParams{
							Customer:  fmt.Sprintf("c%d", i),
							Equipment: eq,
							Start:     start,
							End:       end,
							Location:  reservation.NewLocation(1, 1),
						})
						return err
					}

					for i := range capacity {
						require.NoError(t, book(i))
					}
					require.ErrorIs(t, book(capacity), booking.ErrCapacityExceeded)
				})
			}
		}
	})

	t.Run("random streams never exceed capacity at any instant", func(t *testing.T) {
		type span struct{ start, end time.Time }

		overlapping := func(list []span, s span) int {
			n := 0
			for _, o := range list {
				if o.end.After(s.start) && o.start.Before(s.end) {
					n++
				}
			}
			return n
		}

		for capacity := 1; capacity <= 4; capacity++ {
			t.Run(fmt.Sprintf("capacity=%d", capacity), func(t *testing.T) {
				engine := newCapacityEngine(t, eq, capacity)
				var granted []span

				for i := range 200 {
					start := pivot.Add(time.Duration(rng.IntN(48)) * 30 * time.Minute)
					s := span{start: start, end: start.Add(time.Duration(1+rng.IntN(8)) * 30 * time.Minute)}

					_, err := engine.Reserve(context.Background(), booking.ReserveParams{
						Customer:  fmt.Sprintf("c%d", i),
						Equipment: eq,
						Start:     s.start,
						End:       s.end,
						Location:  reservation.NewLocation(1, 1),
					})

					expectReject := overlapping(granted, s) >= capacity
					if expectReject {
						require.ErrorIs(t, err, booking.ErrCapacityExceeded, "request %d %v", i, s)
						continue
					}
					require.NoError(t, err, "request %d %v", i, s)
					granted = append(granted, s)
				}

				// slot boundaries are the only instants where the count can change
				for _, g := range granted {
					active := 0
					for _, o := range granted {
						if !o.start.After(g.start) && o.end.After(g.start) {
							active++
						}
					}
					assert.LessOrEqual(t, active, capacity, "instant %v", g.start)
				}

				all, err := engine.ListAll(context.Background())
				require.NoError(t, err)
				assert.Len(t, all, len(granted))
			})
		}
	})
}

func TestReserveConcurrent(t *testing.T) {
	f := newFixture(t)
	start := now.Add(48 * time.Hour)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Reserve(context.Background(), booking.ReserveParams{
				Customer:  "racer",
				Equipment: harvester,
				Start:     start,
				End:       start.Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, booking.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	list, err := f.engine.ListByEquipment(context.Background(), harvester, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   float64
	}{
		{name: "10 days out", offset: 10 * 24 * time.Hour, want: 375},
		{name: "exactly 7 days", offset: 7 * 24 * time.Hour, want: 375},
		{name: "exactly 2 days", offset: 2 * 24 * time.Hour, want: 250},
		{name: "1 day", offset: 24 * time.Hour, want: 0},
		{name: "already started", offset: -30 * time.Minute, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			r, err := f.reserve(t, "Jane", scooper, now.Add(tt.offset), time.Hour)
			require.NoError(t, err)
			require.Equal(t, 500.0, r.DownPayment)

			refund, err := f.engine.Cancel(context.Background(), r.ReservationID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, refund)
		})
	}

	t.Run("refund uses the clock at cancel time", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.reserve(t, "Jane", scooper, now.AddDate(0, 0, 8), time.Hour)
		require.NoError(t, err)

		f.clock.Advance(5 * 24 * time.Hour)
		refund, err := f.engine.Cancel(context.Background(), r.ReservationID)
		require.NoError(t, err)
		assert.Equal(t, 250.0, refund)
	})

	t.Run("cancel is not idempotent", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.reserve(t, "Jane", scooper, now.AddDate(0, 0, 8), time.Hour)
		require.NoError(t, err)

		_, err = f.engine.Cancel(context.Background(), r.ReservationID)
		require.NoError(t, err)
		_, err = f.engine.Cancel(context.Background(), r.ReservationID)
		assert.ErrorIs(t, err, booking.ErrReservationNotFound)
		_, err = f.engine.Cancel(context.Background(), 999)
		assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	})

	t.Run("cancelled reservation stays retrievable", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.reserve(t, "Jane", scooper, now.AddDate(0, 0, 8), time.Hour)
		require.NoError(t, err)
		_, err = f.engine.Cancel(context.Background(), r.ReservationID)
		require.NoError(t, err)

		got, err := f.engine.Reservation(context.Background(), r.ReservationID)
		require.NoError(t, err)
		assert.True(t, got.IsCancelled())
		assert.Equal(t, "Jane", got.Customer())

		all, err := f.engine.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = f.engine.Reservation(context.Background(), 42)
		assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	})
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := now.AddDate(0, 0, 3).Truncate(24 * time.Hour)

	r1, err := f.reserve(t, "Jane", scanner, day.Add(10*time.Hour), time.Hour)
	require.NoError(t, err)
	r2, err := f.reserve(t, "Bob", scooper, day.Add(11*time.Hour), time.Hour)
	require.NoError(t, err)
	r3, err := f.reserve(t, "Jane", scooper, day.Add(23*time.Hour), 2*time.Hour)
	require.NoError(t, err)
	r4, err := f.reserve(t, "Jane", scooper, day.Add(13*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, r4.ReservationID)
	require.NoError(t, err)

	from, to := day, day.Add(24*time.Hour)

	t.Run("ListInRange uses containment", func(t *testing.T) {
		list, err := f.engine.ListInRange(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, []int64{r1.ReservationID, r2.ReservationID}, ids(list))

		list, err = f.engine.ListInRange(ctx, day.Add(10*time.Hour), day.Add(11*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []int64{r1.ReservationID}, ids(list), "exact bounds are contained")

		list, err = f.engine.ListInRange(ctx, day.Add(10*time.Hour+30*time.Minute), to)
		require.NoError(t, err)
		assert.Equal(t, []int64{r2.ReservationID}, ids(list), "partially covered reservations are excluded")
	})

	t.Run("ListByCustomer", func(t *testing.T) {
		list, err := f.engine.ListByCustomer(ctx, "Jane", from, to.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []int64{r1.ReservationID, r3.ReservationID}, ids(list))

		list, err = f.engine.ListByCustomer(ctx, "nobody", from, to)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ListByEquipment", func(t *testing.T) {
		list, err := f.engine.ListByEquipment(ctx, scooper, from, to)
		require.NoError(t, err)
		assert.Equal(t, []int64{r2.ReservationID}, ids(list))

		list, err = f.engine.ListByEquipment(ctx, harvester, from, to)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = f.engine.ListByEquipment(ctx, "flux capacitor", from, to)
		assert.ErrorIs(t, err, booking.ErrEquipmentNotFound)
	})

	t.Run("ListAll keeps insertion order", func(t *testing.T) {
		list, err := f.engine.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{r1.ReservationID, r2.ReservationID, r3.ReservationID}, ids(list))
	})

	t.Run("Catalog", func(t *testing.T) {
		list, err := f.engine.Catalog(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, scanner, list[0].Name())
	})
}

func TestFinancialSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := now.AddDate(0, 0, 20)
	booked, err := f.reserve(t, "Jane", scooper, start, 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1500.0, booked.Cost, "booked with the advance discount")

	old, err := f.reserve(t, "Bob", scanner, now.AddDate(0, 0, 60), time.Hour)
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, old.ReservationID)
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)

	summary, err := f.engine.FinancialSummary(ctx, start.Add(-time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)

	want := &booking.FinancialSummary{
		Reservations: []booking.FinancialEntry{{
			ReservationID: booked.ReservationID,
			Customer:      "Jane",
			Equipment:     scooper,
			Start:         start,
			End:           start.Add(2 * time.Hour),
			Cost:          2000,
		}},
		Cancellations: []booking.FinancialEntry{{
			ReservationID: old.ReservationID,
			Customer:      "Bob",
			Equipment:     scanner,
			Start:         now.AddDate(0, 0, 60),
			End:           now.AddDate(0, 0, 60).Add(time.Hour),
			Cost:          742.5,
		}},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("FinancialSummary mismatch (-want +got):\n%s", diff)
	}

	empty, err := f.engine.FinancialSummary(ctx, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty.Reservations)
	assert.Len(t, empty.Cancellations, 1, "cancellations ignore the range")
}

func TestSeedDemo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.engine.SeedDemo(ctx, booking.DemoReservations(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = f.engine.SeedDemo(ctx, booking.DemoReservations(time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := f.engine.ListByCustomer(ctx, "Jane",
		time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRecorder(t *testing.T) {
	f := newFixture(t)

	r, err := f.reserve(t, "John", harvester, now.AddDate(0, 0, 1), time.Hour)
	require.NoError(t, err)
	_, err = f.reserve(t, "Jane", harvester, now.AddDate(0, 0, 1), time.Hour)
	require.Error(t, err)
	_, err = f.reserve(t, "Jane", "nope", now.AddDate(0, 0, 1), time.Hour)
	require.Error(t, err)
	_, err = f.engine.Cancel(context.Background(), r.ReservationID)
	require.NoError(t, err)

	assert.Equal(t, []string{harvester}, f.recorder.created)
	assert.Equal(t, []string{booking.RejectCapacityExceeded, booking.RejectEquipmentNotFound}, f.recorder.rejected)
	assert.Equal(t, []float64{0}, f.recorder.refunds)
}

func TestStoreFailure(t *testing.T) {
	engine := booking.NewEngine(brokenLedger{}, reservation.NewDefaultPriceCalculator(), clock.NewMockClock(now), nil)
	ctx := context.Background()

	_, err := engine.Reserve(ctx, booking.ReserveParams{Customer: "a", Equipment: scooper, Start: now, End: now.Add(time.Hour)})
	assert.True(t, errs.Is(err, booking.ErrStoreFailure), "got %v", err)

	_, err = engine.Cancel(ctx, 1)
	assert.True(t, errs.Is(err, booking.ErrStoreFailure), "got %v", err)

	_, err = engine.ListAll(ctx)
	assert.True(t, errs.Is(err, booking.ErrStoreFailure), "got %v", err)
}

type fakeRecorder struct {
	mu       sync.Mutex
	created  []string
	rejected []string
	refunds  []float64
}

func (r *fakeRecorder) ReservationCreated(eq string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, eq)
}

func (r *fakeRecorder) ReservationRejected(_ string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *fakeRecorder) ReservationCancelled(_ string, refund float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds = append(r.refunds, refund)
}

var errDisk = errors.New("disk on fire")

// brokenLedger fails every call the way a lost database connection would.
type brokenLedger struct{}

func (brokenLedger) Within(context.Context, func(ctx context.Context, tx shared.LedgerTx) error) error {
	return errDisk
}

func (brokenLedger) WithinReadOnly(context.Context, func(ctx context.Context, r shared.LedgerReader) error) error {
	return errDisk
}
