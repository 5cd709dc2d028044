package reservation

import (
	"time"

	"grid-reservation/internal/domain/equipment"
)

const (
	day = 24 * time.Hour

	AdvanceBookingDays     = 14
	AdvanceBookingDiscount = 0.75
	DownPaymentRatio       = 0.5
)

type PriceCalculator interface {
	Cost(eq *equipment.Equipment, slot TimeSlot, now time.Time) float64
}

// DefaultPriceCalculator bills the sub-day part of the slot only: a slot of
// one day and two hours costs two hours. The advance discount looks at the
// whole days between now and the start.
type DefaultPriceCalculator struct {
	DiscountAfterDays int
	DiscountFactor    float64
}

func NewDefaultPriceCalculator() *DefaultPriceCalculator {
	return &DefaultPriceCalculator{
		DiscountAfterDays: AdvanceBookingDays,
		DiscountFactor:    AdvanceBookingDiscount,
	}
}

func (pc *DefaultPriceCalculator) Cost(eq *equipment.Equipment, slot TimeSlot, now time.Time) float64 {
	discount := 1.0
	if WholeDays(slot.Start().Sub(now)) >= int64(pc.DiscountAfterDays) {
		discount = pc.DiscountFactor
	}
	return BillableHours(slot) * eq.HourlyRate() * discount
}

func DownPayment(cost float64) float64 {
	return cost * DownPaymentRatio
}

// BillableHours is the intra-day remainder of the slot in whole seconds,
// expressed in hours.
func BillableHours(slot TimeSlot) float64 {
	rem := slot.Duration() % day
	if rem < 0 {
		rem += day
	}
	seconds := int64(rem / time.Second)
	return float64(seconds) / 3600
}

// WholeDays floors d to days, rounding toward negative infinity, so one hour
// in the past is day -1.
func WholeDays(d time.Duration) int64 {
	days := int64(d / day)
	if d%day < 0 {
		days--
	}
	return days
}
