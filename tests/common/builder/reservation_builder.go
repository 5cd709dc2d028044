//go:build unit || e2e

package builder

import (
	"time"

	"grid-reservation/internal/domain/reservation"
	reqdto "grid-reservation/internal/handler/dto/request"
	"grid-reservation/internal/pkg/timefmt"
	"grid-reservation/internal/usecase/booking"
)

type ReservationBuilder struct {
	ID        int64
	Customer  string
	Equipment string
	Start     time.Time
	End       time.Time
	Cost      float64
	X, Y      int
	Cancelled *time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	start := time.Date(2030, time.April, 14, 9, 0, 0, 0, time.UTC)
	return &ReservationBuilder{
		ID:        1,
		Customer:  "Jane",
		Equipment: "ore scooper",
		Start:     start,
		End:       start.Add(2 * time.Hour),
		Cost:      2000,
		X:         3,
		Y:         4,
	}
}

func (r *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(r)
	return r
}

// Build methods
func (r *ReservationBuilder) BuildDomain() *reservation.Reservation {
	slot, err := reservation.NewTimeSlot(r.Start, r.End)
	if err != nil {
		panic(err)
	}
	status := reservation.StatusActive
	if r.Cancelled != nil {
		status = reservation.StatusCancelled
	}
	return reservation.ReconstructReservation(
		r.ID, r.Customer, r.Equipment, slot,
		r.Cost, reservation.DownPayment(r.Cost),
		reservation.NewLocation(r.X, r.Y), status, r.Cancelled,
	)
}

func (r *ReservationBuilder) BuildParams() booking.ReserveParams {
	return booking.ReserveParams{
		Customer:  r.Customer,
		Equipment: r.Equipment,
		Start:     r.Start,
		End:       r.End,
		Location:  reservation.NewLocation(r.X, r.Y),
	}
}

func (r *ReservationBuilder) BuildCreateRequestDTO() reqdto.CreateReservationRequest {
	x := reqdto.Coordinate(r.X)
	y := reqdto.Coordinate(r.Y)
	return reqdto.CreateReservationRequest{
		StartTime:     r.Start.Format(timefmt.Layout),
		EndTime:       r.End.Format(timefmt.Layout),
		UserName:      r.Customer,
		EquipmentName: r.Equipment,
		X:             &x,
		Y:             &y,
	}
}
