package response

import (
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/pkg/timefmt"
	"grid-reservation/internal/usecase/booking"
)

// Envelope is the success shape shared by every endpoint.
type Envelope struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

func OK(message any) Envelope {
	return Envelope{Success: true, Message: message}
}

type ReservationResponse struct {
	ReservationID int64   `json:"reservation_id"`
	Username      string  `json:"username"`
	Equipment     string  `json:"equipment"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Active        bool    `json:"active"`
	Cost          float64 `json:"cost"`
	DownPayment   float64 `json:"downpayment"`
	Location      string  `json:"location"`
}

type ReservationList struct {
	Reservations []ReservationResponse `json:"reservations"`
}

func FromReservation(r *reservation.Reservation, loc *time.Location) ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ID(),
		Username:      r.Customer(),
		Equipment:     r.EquipmentName(),
		StartDate:     timefmt.Format(r.TimeSlot().Start(), loc),
		EndDate:       timefmt.Format(r.TimeSlot().End(), loc),
		Active:        r.IsActive(),
		Cost:          r.Cost(),
		DownPayment:   r.DownPayment(),
		Location:      r.Location().String(),
	}
}

func FromReservations(list []*reservation.Reservation, loc *time.Location) ReservationList {
	out := ReservationList{Reservations: make([]ReservationResponse, 0, len(list))}
	for _, r := range list {
		out.Reservations = append(out.Reservations, FromReservation(r, loc))
	}
	return out
}

type ReserveResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	ReservationID int64   `json:"reservation_id"`
	Cost          float64 `json:"cost"`
	DownPayment   float64 `json:"downpayment"`
}

type CancelResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Refund  float64 `json:"refund"`
}

type AccessResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

type FinancialEntryResponse struct {
	ReservationID int64   `json:"reservation_id"`
	Username      string  `json:"username"`
	Equipment     string  `json:"equipment"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Cost          float64 `json:"cost"`
}

type FinancialResponse struct {
	Reservations  []FinancialEntryResponse `json:"reservations"`
	Cancellations []FinancialEntryResponse `json:"cancellations"`
}

func FromFinancialSummary(s *booking.FinancialSummary, loc *time.Location) FinancialResponse {
	convert := func(entries []booking.FinancialEntry) []FinancialEntryResponse {
		out := make([]FinancialEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, FinancialEntryResponse{
				ReservationID: e.ReservationID,
				Username:      e.Customer,
				Equipment:     e.Equipment,
				StartDate:     timefmt.Format(e.Start, loc),
				EndDate:       timefmt.Format(e.End, loc),
				Cost:          e.Cost,
			})
		}
		return out
	}
	return FinancialResponse{
		Reservations:  convert(s.Reservations),
		Cancellations: convert(s.Cancellations),
	}
}

type EquipmentResponse struct {
	Name       string  `json:"name"`
	Capacity   int     `json:"capacity"`
	HourlyRate float64 `json:"hourly_rate"`
}

type EquipmentList struct {
	Equipment []EquipmentResponse `json:"equipment"`
}

func FromCatalog(list []*equipment.Equipment) EquipmentList {
	out := EquipmentList{Equipment: make([]EquipmentResponse, 0, len(list))}
	for _, eq := range list {
		out.Equipment = append(out.Equipment, EquipmentResponse{
			Name:       eq.Name(),
			Capacity:   eq.Capacity(),
			HourlyRate: eq.HourlyRate(),
		})
	}
	return out
}
