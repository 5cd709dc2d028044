package shared

import (
	"context"

	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/domain/user"
)

// ReservationFilter narrows ListActive. Zero values match everything.
type ReservationFilter struct {
	Window    *reservation.Window
	Customer  string
	Equipment string
}

func (f ReservationFilter) Matches(r *reservation.Reservation) bool {
	if f.Window != nil && !f.Window.Contains(r.TimeSlot()) {
		return false
	}
	if f.Customer != "" && r.Customer() != f.Customer {
		return false
	}
	if f.Equipment != "" && r.EquipmentName() != f.Equipment {
		return false
	}
	return true
}

type UserStore interface {
	FindUser(ctx context.Context, username string) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	// CreateUser returns an infra.KindDuplicateKey error for a taken username.
	CreateUser(ctx context.Context, u *user.User) (int64, error)
	UpdateUser(ctx context.Context, u *user.User) error
}
