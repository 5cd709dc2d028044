// Package memory keeps the ledger and the user directory in process memory.
// It is the default store and the reference for the SQL stores' behavior.
package memory

import (
	"context"
	"slices"
	"sync"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/usecase/shared"
)

type Ledger struct {
	mu    sync.RWMutex
	state ledgerState
}

// ledgerState values are never mutated in place once published; a write
// transaction works on a copy that replaces the state on commit.
type ledgerState struct {
	equipment map[string]*equipment.Equipment
	order     []string
	active    []*reservation.Reservation
	cancelled []*reservation.Reservation
	lastID    int64
}

func NewLedger() *Ledger {
	return &Ledger{
		state: ledgerState{equipment: map[string]*equipment.Equipment{}},
	}
}

func (l *Ledger) Within(ctx context.Context, fn func(ctx context.Context, tx shared.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.state.clone()
	if err := fn(ctx, &ledgerTx{ledgerReader{st: &work}}); err != nil {
		return err
	}
	l.state = work
	return nil
}

func (l *Ledger) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, r shared.LedgerReader) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := l.state
	return fn(ctx, ledgerReader{st: &st})
}

func (s ledgerState) clone() ledgerState {
	eq := make(map[string]*equipment.Equipment, len(s.equipment))
	for k, v := range s.equipment {
		eq[k] = v
	}
	return ledgerState{
		equipment: eq,
		order:     slices.Clone(s.order),
		active:    slices.Clone(s.active),
		cancelled: slices.Clone(s.cancelled),
		lastID:    s.lastID,
	}
}

type ledgerReader struct {
	st *ledgerState
}

func (r ledgerReader) EquipmentByName(_ context.Context, name string) (*equipment.Equipment, error) {
	eq, ok := r.st.equipment[name]
	if !ok {
		return nil, infra.WrapRepoErr("equipment not found", nil, infra.KindNotFound)
	}
	return eq, nil
}

func (r ledgerReader) ListEquipment(_ context.Context) ([]*equipment.Equipment, error) {
	out := make([]*equipment.Equipment, 0, len(r.st.order))
	for _, name := range r.st.order {
		out = append(out, r.st.equipment[name])
	}
	return out, nil
}

func (r ledgerReader) ListActive(_ context.Context, filter shared.ReservationFilter) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, 0)
	for _, res := range r.st.active {
		if filter.Matches(res) {
			out = append(out, copyReservation(res))
		}
	}
	return out, nil
}

func (r ledgerReader) ListCancelled(_ context.Context) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, 0, len(r.st.cancelled))
	for _, res := range r.st.cancelled {
		out = append(out, copyReservation(res))
	}
	return out, nil
}

func (r ledgerReader) FindReservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	if i := r.activeIndex(id); i >= 0 {
		return copyReservation(r.st.active[i]), nil
	}
	for _, res := range r.st.cancelled {
		if res.ID() == id {
			return copyReservation(res), nil
		}
	}
	return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
}

func (r ledgerReader) activeIndex(id int64) int {
	return slices.IndexFunc(r.st.active, func(res *reservation.Reservation) bool {
		return res.ID() == id
	})
}

type ledgerTx struct {
	ledgerReader
}

func (t *ledgerTx) UpsertEquipment(_ context.Context, eq *equipment.Equipment) error {
	if _, ok := t.st.equipment[eq.Name()]; !ok {
		t.st.order = append(t.st.order, eq.Name())
	}
	t.st.equipment[eq.Name()] = eq
	return nil
}

// LockEquipment needs no extra locking: Within holds the ledger's write lock.
func (t *ledgerTx) LockEquipment(ctx context.Context, name string) (*equipment.Equipment, error) {
	return t.EquipmentByName(ctx, name)
}

func (t *ledgerTx) CountOverlapping(_ context.Context, equipmentName string, slot reservation.TimeSlot) (int, error) {
	n := 0
	for _, res := range t.st.active {
		if res.EquipmentName() == equipmentName && res.TimeSlot().Overlaps(slot) {
			n++
		}
	}
	return n, nil
}

func (t *ledgerTx) FindActive(_ context.Context, id int64) (*reservation.Reservation, error) {
	i := t.activeIndex(id)
	if i < 0 {
		return nil, infra.WrapRepoErr("active reservation not found", nil, infra.KindNotFound)
	}
	return copyReservation(t.st.active[i]), nil
}

func (t *ledgerTx) Insert(_ context.Context, res *reservation.Reservation) (int64, error) {
	t.st.lastID++
	stored := copyReservation(res)
	stored.AssignID(t.st.lastID)
	t.st.active = append(t.st.active, stored)
	return t.st.lastID, nil
}

func (t *ledgerTx) MarkCancelled(_ context.Context, res *reservation.Reservation) error {
	i := t.activeIndex(res.ID())
	if i < 0 {
		return infra.WrapRepoErr("active reservation not found", nil, infra.KindNotFound)
	}
	t.st.active = slices.Delete(t.st.active, i, i+1)
	t.st.cancelled = append(t.st.cancelled, copyReservation(res))
	return nil
}

func copyReservation(r *reservation.Reservation) *reservation.Reservation {
	return reservation.ReconstructReservation(
		r.ID(),
		r.Customer(),
		r.EquipmentName(),
		r.TimeSlot(),
		r.Cost(),
		r.DownPayment(),
		r.Location(),
		r.Status(),
		r.CancelledAt(),
	)
}
