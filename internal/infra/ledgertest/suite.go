// Package ledgertest holds behavior every shared.Ledger implementation must
// show. Store packages run LedgerSuite from their own tests.
package ledgertest

import (
	"context"
	"errors"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/usecase/shared"

	"github.com/stretchr/testify/suite"
)

var Base = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

const (
	Scooper = "ore scooper"
	Scanner = "multi-phasic radiation scanner"
)

type LedgerSuite struct {
	suite.Suite

	// NewLedger returns an empty ledger for each test.
	NewLedger func() shared.Ledger

	ctx    context.Context
	ledger shared.Ledger
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = s.NewLedger()

	s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		for _, eq := range []*equipment.Equipment{
			equipment.ReconstructEquipment(Scanner, 4, 990),
			equipment.ReconstructEquipment(Scooper, 4, 1000),
		} {
			if err := tx.UpsertEquipment(ctx, eq); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *LedgerSuite) slot(offset, d time.Duration) reservation.TimeSlot {
	ts, err := reservation.NewTimeSlot(Base.Add(offset), Base.Add(offset+d))
	s.Require().NoError(err)
	return ts
}

func (s *LedgerSuite) insert(customer, eq string, slot reservation.TimeSlot) int64 {
	res, err := reservation.NewReservation(customer, eq, slot, 1000, reservation.NewLocation(3, 4))
	s.Require().NoError(err)

	var id int64
	s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		var err error
		id, err = tx.Insert(ctx, res)
		return err
	}))
	return id
}

func (s *LedgerSuite) cancel(id int64, at time.Time) {
	s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		res, err := tx.FindActive(ctx, id)
		if err != nil {
			return err
		}
		if err := res.Cancel(at); err != nil {
			return err
		}
		return tx.MarkCancelled(ctx, res)
	}))
}

func (s *LedgerSuite) read(fn func(ctx context.Context, r shared.LedgerReader)) {
	s.Require().NoError(s.ledger.WithinReadOnly(s.ctx, func(ctx context.Context, r shared.LedgerReader) error {
		fn(ctx, r)
		return nil
	}))
}

func (s *LedgerSuite) TestEquipment() {
	s.Run("catalog keeps insertion order", func() {
		s.read(func(ctx context.Context, r shared.LedgerReader) {
			list, err := r.ListEquipment(ctx)
			s.Require().NoError(err)
			s.Require().Len(list, 2)
			s.Equal(Scanner, list[0].Name())
			s.Equal(Scooper, list[1].Name())
		})
	})

	s.Run("upsert replaces attributes", func() {
		s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
			return tx.UpsertEquipment(ctx, equipment.ReconstructEquipment(Scooper, 2, 1500))
		}))

		s.read(func(ctx context.Context, r shared.LedgerReader) {
			eq, err := r.EquipmentByName(ctx, Scooper)
			s.Require().NoError(err)
			s.Equal(2, eq.Capacity())
			s.Equal(1500.0, eq.HourlyRate())

			list, err := r.ListEquipment(ctx)
			s.Require().NoError(err)
			s.Len(list, 2)
		})
	})

	s.Run("unknown name is not found", func() {
		s.read(func(ctx context.Context, r shared.LedgerReader) {
			_, err := r.EquipmentByName(ctx, "ore  scooper")
			s.True(infra.IsKind(err, infra.KindNotFound), "got %v", err)
		})

		err := s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
			_, err := tx.LockEquipment(ctx, "flux capacitor")
			return err
		})
		s.True(infra.IsKind(err, infra.KindNotFound), "got %v", err)
	})
}

func (s *LedgerSuite) TestInsertAssignsIncreasingIDs() {
	first := s.insert("Jane", Scooper, s.slot(0, time.Hour))
	second := s.insert("Bob", Scooper, s.slot(0, time.Hour))
	s.cancel(second, Base)
	third := s.insert("Jane", Scanner, s.slot(time.Hour, time.Hour))

	s.Equal(int64(1), first)
	s.Greater(second, first)
	s.Greater(third, second)
}

func (s *LedgerSuite) TestRoundTrip() {
	slot := s.slot(90*time.Minute, 2*time.Hour)
	res, err := reservation.NewReservation("krishna", Scanner, slot, 1485, reservation.NewLocation(9, 20))
	s.Require().NoError(err)

	var id int64
	s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		id, err = tx.Insert(ctx, res)
		return err
	}))

	s.read(func(ctx context.Context, r shared.LedgerReader) {
		got, err := r.FindReservation(ctx, id)
		s.Require().NoError(err)
		s.Equal(id, got.ID())
		s.Equal("krishna", got.Customer())
		s.Equal(Scanner, got.EquipmentName())
		s.True(slot.Start().Equal(got.TimeSlot().Start()))
		s.True(slot.End().Equal(got.TimeSlot().End()))
		s.Equal(1485.0, got.Cost())
		s.Equal(742.5, got.DownPayment())
		s.Equal(reservation.NewLocation(9, 20), got.Location())
		s.Equal(reservation.StatusActive, got.Status())
		s.Nil(got.CancelledAt())
	})
}

func (s *LedgerSuite) TestFarFutureSlots() {
	at := func(year int, month time.Month, day, hour int, d time.Duration) reservation.TimeSlot {
		start := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
		ts, err := reservation.NewTimeSlot(start, start.Add(d))
		s.Require().NoError(err)
		return ts
	}

	future := at(2300, time.January, 1, 9, time.Hour)
	straddle := at(2262, time.April, 11, 23, 2*time.Hour)
	past := at(1715, time.June, 13, 9, 2*time.Hour)

	futureID := s.insert("Jane", Scooper, future)
	straddleID := s.insert("Jane", Scooper, straddle)
	s.insert("Bob", Scooper, past)

	s.read(func(ctx context.Context, r shared.LedgerReader) {
		for id, want := range map[int64]reservation.TimeSlot{futureID: future, straddleID: straddle} {
			got, err := r.FindReservation(ctx, id)
			s.Require().NoError(err)
			s.True(want.Start().Equal(got.TimeSlot().Start()), "start %v, want %v", got.TimeSlot().Start(), want.Start())
			s.True(want.End().Equal(got.TimeSlot().End()), "end %v, want %v", got.TimeSlot().End(), want.End())
		}

		w := reservation.NewWindow(time.Date(2299, time.December, 31, 0, 0, 0, 0, time.UTC), time.Date(2300, time.January, 2, 0, 0, 0, 0, time.UTC))
		list, err := r.ListActive(ctx, shared.ReservationFilter{Window: &w})
		s.Require().NoError(err)
		s.Equal([]int64{futureID}, reservationIDs(list))
	})

	s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		n, err := tx.CountOverlapping(ctx, Scooper, future)
		s.Require().NoError(err)
		s.Equal(1, n)

		n, err = tx.CountOverlapping(ctx, Scooper, at(1715, time.June, 13, 10, time.Hour))
		s.Require().NoError(err)
		s.Equal(1, n)
		return nil
	}))
}

func reservationIDs(list []*reservation.Reservation) []int64 {
	ids := make([]int64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID())
	}
	return ids
}

func (s *LedgerSuite) TestCountOverlapping() {
	s.insert("a", Scooper, s.slot(0, time.Hour))
	s.insert("b", Scooper, s.slot(30*time.Minute, time.Hour))
	s.insert("c", Scooper, s.slot(2*time.Hour, time.Hour))
	s.insert("d", Scanner, s.slot(0, time.Hour))
	cancelled := s.insert("e", Scooper, s.slot(0, time.Hour))
	s.cancel(cancelled, Base)

	tests := []struct {
		name string
		slot reservation.TimeSlot
		want int
	}{
		{name: "same hour", slot: s.slot(0, time.Hour), want: 2},
		{name: "spans all", slot: s.slot(-time.Hour, 5*time.Hour), want: 3},
		{name: "touching end is free", slot: s.slot(90*time.Minute, 30*time.Minute), want: 0},
		{name: "touching start is free", slot: s.slot(-time.Hour, time.Hour), want: 0},
		{name: "later slot", slot: s.slot(150*time.Minute, time.Hour), want: 1},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Require().NoError(s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
				n, err := tx.CountOverlapping(ctx, Scooper, tt.slot)
				s.Require().NoError(err)
				s.Equal(tt.want, n)
				return nil
			}))
		})
	}
}

func (s *LedgerSuite) TestListActive() {
	id1 := s.insert("Jane", Scooper, s.slot(0, time.Hour))
	id2 := s.insert("Bob", Scanner, s.slot(time.Hour, time.Hour))
	id3 := s.insert("Jane", Scanner, s.slot(23*time.Hour, 2*time.Hour))
	id4 := s.insert("Jane", Scooper, s.slot(2*time.Hour, time.Hour))
	s.cancel(id4, Base)

	window := reservation.NewWindow(Base, Base.Add(24*time.Hour))

	tests := []struct {
		name   string
		filter shared.ReservationFilter
		want   []int64
	}{
		{name: "all", filter: shared.ReservationFilter{}, want: []int64{id1, id2, id3}},
		{name: "contained only", filter: shared.ReservationFilter{Window: &window}, want: []int64{id1, id2}},
		{name: "by customer", filter: shared.ReservationFilter{Window: &window, Customer: "Jane"}, want: []int64{id1}},
		{name: "by equipment", filter: shared.ReservationFilter{Equipment: Scanner}, want: []int64{id2, id3}},
		{name: "no match", filter: shared.ReservationFilter{Customer: "nobody"}, want: []int64{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.read(func(ctx context.Context, r shared.LedgerReader) {
				list, err := r.ListActive(ctx, tt.filter)
				s.Require().NoError(err)
				s.Equal(tt.want, reservationIDs(list))
			})
		})
	}
}

func (s *LedgerSuite) TestCancelled() {
	id1 := s.insert("Jane", Scooper, s.slot(0, time.Hour))
	id2 := s.insert("Bob", Scooper, s.slot(0, time.Hour))

	s.cancel(id2, Base.Add(-2*time.Hour))
	s.cancel(id1, Base.Add(-time.Hour))

	s.read(func(ctx context.Context, r shared.LedgerReader) {
		list, err := r.ListCancelled(ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(id2, list[0].ID())
		s.Equal(id1, list[1].ID())
		s.Equal(reservation.StatusCancelled, list[0].Status())

		got, err := r.FindReservation(ctx, id1)
		s.Require().NoError(err)
		s.True(got.IsCancelled())
		s.Require().NotNil(got.CancelledAt())
		s.True(Base.Add(-time.Hour).Equal(*got.CancelledAt()))

		active, err := r.ListActive(ctx, shared.ReservationFilter{})
		s.Require().NoError(err)
		s.Empty(active)
	})

	err := s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		_, err := tx.FindActive(ctx, id1)
		return err
	})
	s.True(infra.IsKind(err, infra.KindNotFound), "got %v", err)
}

func (s *LedgerSuite) TestFindMissing() {
	s.read(func(ctx context.Context, r shared.LedgerReader) {
		_, err := r.FindReservation(ctx, 404)
		s.True(infra.IsKind(err, infra.KindNotFound), "got %v", err)
	})
}

func (s *LedgerSuite) TestRollback() {
	errBoom := errors.New("boom")
	res, err := reservation.NewReservation("Jane", Scooper, s.slot(0, time.Hour), 1000, reservation.NewLocation(1, 1))
	s.Require().NoError(err)

	err = s.ledger.Within(s.ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		if _, err := tx.Insert(ctx, res); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	s.read(func(ctx context.Context, r shared.LedgerReader) {
		list, err := r.ListActive(ctx, shared.ReservationFilter{})
		s.Require().NoError(err)
		s.Empty(list)
	})
}
