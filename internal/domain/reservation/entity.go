package reservation

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInterval      = errors.New("end time must be after start time")
	ErrEmptyCustomer        = errors.New("customer cannot be empty")
	ErrReservationCancelled = errors.New("reservation is already cancelled")
	ErrNegativePrice        = errors.New("price cannot be negative")
)

type Reservation struct {
	id            int64
	customer      string
	equipmentName string
	timeSlot      TimeSlot
	cost          float64
	downPayment   float64
	location      Location
	status        Status
	cancelledAt   *time.Time
}

// NewReservation builds an active reservation that has not been stored yet.
// The id is assigned by the ledger on insert.
func NewReservation(
	customer string,
	equipmentName string,
	slot TimeSlot,
	cost float64,
	location Location,
) (*Reservation, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, ErrEmptyCustomer
	}
	if cost < 0 {
		return nil, ErrNegativePrice
	}

	return &Reservation{
		customer:      customer,
		equipmentName: equipmentName,
		timeSlot:      slot,
		cost:          cost,
		downPayment:   DownPayment(cost),
		location:      location,
		status:        StatusActive,
	}, nil
}

func ReconstructReservation(
	id int64,
	customer string,
	equipmentName string,
	timeSlot TimeSlot,
	cost float64,
	downPayment float64,
	location Location,
	status Status,
	cancelledAt *time.Time,
) *Reservation {
	return &Reservation{
		id:            id,
		customer:      customer,
		equipmentName: equipmentName,
		timeSlot:      timeSlot,
		cost:          cost,
		downPayment:   downPayment,
		location:      location,
		status:        status,
		cancelledAt:   cancelledAt,
	}
}

func (r *Reservation) AssignID(id int64) {
	r.id = id
}

// Cancel is terminal.
func (r *Reservation) Cancel(now time.Time) error {
	if r.status == StatusCancelled {
		return ErrReservationCancelled
	}
	r.status = StatusCancelled
	r.cancelledAt = &now
	return nil
}

func (r *Reservation) IsActive() bool {
	return r.status == StatusActive
}

func (r *Reservation) IsCancelled() bool {
	return r.status == StatusCancelled
}

func (r *Reservation) ID() int64               { return r.id }
func (r *Reservation) Customer() string        { return r.customer }
func (r *Reservation) EquipmentName() string   { return r.equipmentName }
func (r *Reservation) TimeSlot() TimeSlot      { return r.timeSlot }
func (r *Reservation) Cost() float64           { return r.cost }
func (r *Reservation) DownPayment() float64    { return r.downPayment }
func (r *Reservation) Location() Location      { return r.location }
func (r *Reservation) Status() Status          { return r.status }
func (r *Reservation) CancelledAt() *time.Time { return r.cancelledAt }
