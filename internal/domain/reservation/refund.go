package reservation

import "time"

type RefundPolicy interface {
	Refund(r *Reservation, now time.Time) float64
}

// TieredRefundPolicy returns part of the down payment depending on the whole
// days left until the reservation starts.
type TieredRefundPolicy struct{}

func NewTieredRefundPolicy() TieredRefundPolicy {
	return TieredRefundPolicy{}
}

func (TieredRefundPolicy) Refund(r *Reservation, now time.Time) float64 {
	return r.DownPayment() * RefundRatio(WholeDays(r.TimeSlot().Start().Sub(now)))
}

func RefundRatio(daysBeforeStart int64) float64 {
	switch {
	case daysBeforeStart >= 7:
		return 0.75
	case daysBeforeStart >= 2:
		return 0.5
	default:
		return 0
	}
}
