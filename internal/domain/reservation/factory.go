package reservation

import (
	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/pkg/clock"
)

type Factory struct {
	Clock           clock.Clock
	PriceCalculator PriceCalculator
}

func NewFactory(clock clock.Clock, priceCalculator PriceCalculator) *Factory {
	return &Factory{
		Clock:           clock,
		PriceCalculator: priceCalculator,
	}
}

// CreateReservation prices the slot against the current clock. Capacity is
// the caller's concern.
func (f *Factory) CreateReservation(
	eq *equipment.Equipment,
	customer string,
	slot TimeSlot,
	location Location,
) (*Reservation, error) {
	cost := f.PriceCalculator.Cost(eq, slot, f.Clock.Now())
	return NewReservation(customer, eq.Name(), slot, cost, location)
}
