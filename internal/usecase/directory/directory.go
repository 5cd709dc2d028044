// Package directory manages the users callers consult for access decisions.
package directory

import (
	"context"
	"log/slog"

	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/shared"
)

var (
	ErrUserNotFound = errs.New("user not found")
	ErrUserExists   = errs.New("user already exists")
	ErrInvalidRole  = user.ErrInvalidRole
	ErrInvalidUser  = errs.New("invalid user")

	// Error markers for categorization
	ErrStoreFailure = errs.New("user store failure")
)

type Service interface {
	Login(ctx context.Context, username string) (*user.User, error)
	AddUser(ctx context.Context, username, firstName, role string) (*user.User, error)
	ChangeRole(ctx context.Context, username, role string) (*user.User, error)
	RemoveUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]*user.User, error)
}

type directoryImpl struct {
	store  shared.UserStore
	logger *slog.Logger
}

func NewDirectory(store shared.UserStore, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &directoryImpl{
		store:  store,
		logger: logger.With("component", "directory"),
	}
}

// Login only knows active users.
func (d *directoryImpl) Login(ctx context.Context, username string) (*user.User, error) {
	u, err := d.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (d *directoryImpl) AddUser(ctx context.Context, username, firstName, role string) (*user.User, error) {
	r, err := user.NewRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	u, err := user.NewUser(username, firstName, r)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidUser)
	}

	id, err := d.store.CreateUser(ctx, u)
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, errs.Mark(err, ErrStoreFailure)
	}

	d.logger.InfoContext(ctx, "user added", "username", u.Username(), "role", u.Role().String())
	return user.ReconstructUser(id, u.Username(), u.FirstName(), u.Role(), u.IsActive()), nil
}

func (d *directoryImpl) ChangeRole(ctx context.Context, username, role string) (*user.User, error) {
	r, err := user.NewRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	u, err := d.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeRole(r); err != nil {
		return nil, ErrInvalidRole
	}
	if err := d.update(ctx, u); err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "user role changed", "username", u.Username(), "role", r.String())
	return u, nil
}

// RemoveUser deactivates the user; the record is kept.
func (d *directoryImpl) RemoveUser(ctx context.Context, username string) error {
	u, err := d.find(ctx, username)
	if err != nil {
		return err
	}
	u.Deactivate()
	if err := d.update(ctx, u); err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "user removed", "username", u.Username())
	return nil
}

func (d *directoryImpl) ListUsers(ctx context.Context) ([]*user.User, error) {
	list, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	return list, nil
}

func (d *directoryImpl) find(ctx context.Context, username string) (*user.User, error) {
	u, err := d.store.FindUser(ctx, username)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	return u, nil
}

func (d *directoryImpl) update(ctx context.Context, u *user.User) error {
	if err := d.store.UpdateUser(ctx, u); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrUserNotFound
		}
		return errs.Mark(err, ErrStoreFailure)
	}
	return nil
}
