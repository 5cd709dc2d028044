package shared

import (
	"context"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
)

// Ledger is the persistence boundary of the booking engine. Every engine
// call maps to exactly one Within or WithinReadOnly invocation.
type Ledger interface {
	// Within: read-write transaction; fn's error rolls everything back
	Within(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
	// WithinReadOnly: consistent snapshot for queries
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, r LedgerReader) error) error
}

type LedgerReader interface {
	// EquipmentByName returns an infra.KindNotFound error for unknown names.
	EquipmentByName(ctx context.Context, name string) (*equipment.Equipment, error)
	ListEquipment(ctx context.Context) ([]*equipment.Equipment, error)
	// ListActive returns active reservations in id order.
	ListActive(ctx context.Context, filter ReservationFilter) ([]*reservation.Reservation, error)
	// ListCancelled returns cancelled reservations in cancellation order.
	ListCancelled(ctx context.Context) ([]*reservation.Reservation, error)
	// FindReservation looks in both collections.
	FindReservation(ctx context.Context, id int64) (*reservation.Reservation, error)
}

type LedgerTx interface {
	LedgerReader

	UpsertEquipment(ctx context.Context, eq *equipment.Equipment) error
	// LockEquipment is EquipmentByName plus a write lock on the catalog row
	// held until the transaction ends.
	LockEquipment(ctx context.Context, name string) (*equipment.Equipment, error)
	// CountOverlapping counts active reservations of the equipment whose
	// interval overlaps slot.
	CountOverlapping(ctx context.Context, equipmentName string, slot reservation.TimeSlot) (int, error)
	// FindActive returns an infra.KindNotFound error unless an active
	// reservation with the id exists.
	FindActive(ctx context.Context, id int64) (*reservation.Reservation, error)
	// Insert stores an active reservation and returns its new id.
	Insert(ctx context.Context, res *reservation.Reservation) (int64, error)
	// MarkCancelled persists a reservation already moved to the cancelled
	// state by the domain.
	MarkCancelled(ctx context.Context, res *reservation.Reservation) error
}
