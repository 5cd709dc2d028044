package booking

import (
	"context"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/shared"
)

// FinancialEntry carries a cost recomputed at report time, so it can differ
// from the cost charged at booking once the advance discount window moves.
type FinancialEntry struct {
	ReservationID int64
	Customer      string
	Equipment     string
	Start         time.Time
	End           time.Time
	Cost          float64
}

type FinancialSummary struct {
	Reservations  []FinancialEntry
	Cancellations []FinancialEntry
}

func (e *Engine) Reservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	err := e.read(ctx, func(ctx context.Context, r shared.LedgerReader) error {
		found, err := r.FindReservation(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStoreFailure)
		}
		res = found
		return nil
	})
	return res, err
}

// ListInRange returns active reservations fully contained in [start, end].
func (e *Engine) ListInRange(ctx context.Context, start, end time.Time) ([]*reservation.Reservation, error) {
	w := reservation.NewWindow(start, end)
	return e.listActive(ctx, shared.ReservationFilter{Window: &w})
}

func (e *Engine) ListByCustomer(ctx context.Context, customer string, start, end time.Time) ([]*reservation.Reservation, error) {
	w := reservation.NewWindow(start, end)
	return e.listActive(ctx, shared.ReservationFilter{Window: &w, Customer: customer})
}

// ListByEquipment fails with ErrEquipmentNotFound for a name outside the
// catalog, which callers must tell apart from an empty result.
func (e *Engine) ListByEquipment(ctx context.Context, equipmentName string, start, end time.Time) ([]*reservation.Reservation, error) {
	w := reservation.NewWindow(start, end)

	var out []*reservation.Reservation
	err := e.read(ctx, func(ctx context.Context, r shared.LedgerReader) error {
		if _, err := r.EquipmentByName(ctx, equipmentName); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrEquipmentNotFound
			}
			return errs.Mark(err, ErrStoreFailure)
		}

		list, err := r.ListActive(ctx, shared.ReservationFilter{Window: &w, Equipment: equipmentName})
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		out = list
		return nil
	})
	return out, err
}

func (e *Engine) ListAll(ctx context.Context) ([]*reservation.Reservation, error) {
	return e.listActive(ctx, shared.ReservationFilter{})
}

// FinancialSummary filters active reservations by containment but includes
// every cancelled reservation regardless of the range.
func (e *Engine) FinancialSummary(ctx context.Context, start, end time.Time) (*FinancialSummary, error) {
	w := reservation.NewWindow(start, end)
	summary := &FinancialSummary{
		Reservations:  []FinancialEntry{},
		Cancellations: []FinancialEntry{},
	}

	err := e.read(ctx, func(ctx context.Context, r shared.LedgerReader) error {
		catalog, err := r.ListEquipment(ctx)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		byName := make(map[string]*equipment.Equipment, len(catalog))
		for _, eq := range catalog {
			byName[eq.Name()] = eq
		}

		active, err := r.ListActive(ctx, shared.ReservationFilter{Window: &w})
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		cancelled, err := r.ListCancelled(ctx)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}

		now := e.clock.Now()
		for _, res := range active {
			summary.Reservations = append(summary.Reservations, e.financialEntry(res, byName, now))
		}
		for _, res := range cancelled {
			summary.Cancellations = append(summary.Cancellations, e.financialEntry(res, byName, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (e *Engine) Catalog(ctx context.Context) ([]*equipment.Equipment, error) {
	var out []*equipment.Equipment
	err := e.read(ctx, func(ctx context.Context, r shared.LedgerReader) error {
		list, err := r.ListEquipment(ctx)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		out = list
		return nil
	})
	return out, err
}

func (e *Engine) financialEntry(res *reservation.Reservation, catalog map[string]*equipment.Equipment, now time.Time) FinancialEntry {
	cost := res.Cost()
	if eq, ok := catalog[res.EquipmentName()]; ok {
		cost = e.pricing.Cost(eq, res.TimeSlot(), now)
	}
	return FinancialEntry{
		ReservationID: res.ID(),
		Customer:      res.Customer(),
		Equipment:     res.EquipmentName(),
		Start:         res.TimeSlot().Start(),
		End:           res.TimeSlot().End(),
		Cost:          cost,
	}
}

func (e *Engine) listActive(ctx context.Context, filter shared.ReservationFilter) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	err := e.read(ctx, func(ctx context.Context, r shared.LedgerReader) error {
		list, err := r.ListActive(ctx, filter)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		out = list
		return nil
	})
	return out, err
}

func (e *Engine) read(ctx context.Context, fn func(ctx context.Context, r shared.LedgerReader) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return classify(e.ledger.WithinReadOnly(ctx, fn))
}
