package request

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/pkg/timefmt"
	"grid-reservation/internal/usecase/booking"
)

var (
	ErrInvalidCoordinate = errs.New("coordinates must be integers between 1 and 20")
	ErrMissingCoordinate = errs.New("x_coor and y_coor are required")
)

// Coordinate accepts 7, 7.0 and "7"; the terminal client sends strings.
type Coordinate int

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(timefmt.Unquote(s)))
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != float64(int(f)) {
		return ErrInvalidCoordinate
	}
	*c = Coordinate(int(f))
	return nil
}

type CreateReservationRequest struct {
	StartTime     string      `json:"start_time" binding:"required"`
	EndTime       string      `json:"end_time" binding:"required"`
	UserName      string      `json:"user_name" binding:"required"`
	EquipmentName string      `json:"equipment_name" binding:"required"`
	X             *Coordinate `json:"x_coor"`
	Y             *Coordinate `json:"y_coor"`
}

// ToParams checks the grid bounds the engine leaves to its callers.
func (r CreateReservationRequest) ToParams(loc *time.Location) (booking.ReserveParams, error) {
	start, err := timefmt.Parse(r.StartTime, loc)
	if err != nil {
		return booking.ReserveParams{}, err
	}
	end, err := timefmt.Parse(r.EndTime, loc)
	if err != nil {
		return booking.ReserveParams{}, err
	}

	if r.X == nil || r.Y == nil {
		return booking.ReserveParams{}, ErrMissingCoordinate
	}
	location := reservation.NewLocation(int(*r.X), int(*r.Y))
	if !location.InGrid() {
		return booking.ReserveParams{}, ErrInvalidCoordinate
	}

	return booking.ReserveParams{
		Customer:  strings.TrimSpace(timefmt.Unquote(r.UserName)),
		Equipment: timefmt.Unquote(r.EquipmentName),
		Start:     start,
		End:       end,
		Location:  location,
	}, nil
}

type RangeQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

func (q RangeQuery) Parse(loc *time.Location) (time.Time, time.Time, error) {
	start, err := timefmt.Parse(q.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timefmt.Parse(q.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type CustomerRangeQuery struct {
	RangeQuery
	UserName string `form:"user_name" binding:"required"`
}

type EquipmentRangeQuery struct {
	RangeQuery
	EquipmentName string `form:"equipment_name" binding:"required"`
}

type ReservationIDQuery struct {
	ID string `form:"id"`
	// the access lookup names the same value reservation_id
	ReservationID string `form:"reservation_id"`
}

var ErrInvalidReservationID = errs.New("reservation id must be a positive integer")

func (q ReservationIDQuery) Parse() (int64, error) {
	raw := q.ID
	if raw == "" {
		raw = q.ReservationID
	}
	id, err := strconv.ParseInt(strings.TrimSpace(timefmt.Unquote(raw)), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidReservationID
	}
	return id, nil
}
