package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindUser(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, first_name, role, active FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return u, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, first_name, role, active FROM users ORDER BY id`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list users", err)
	}
	defer rows.Close()

	out := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list users", err)
	}
	return out, nil
}

func (s *UserStore) CreateUser(ctx context.Context, u *user.User) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, first_name, role, active) VALUES (?, ?, ?, ?)`,
		u.Username(), u.FirstName(), u.Role().String(), u.IsActive())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, infra.WrapRepoErr("username already exists", err, infra.KindDuplicateKey)
		}
		return 0, infra.WrapRepoErr("failed to create user", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to read user id", err)
	}
	return id, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u *user.User) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, role = ?, active = ? WHERE username = ?`,
		u.FirstName(), u.Role().String(), u.IsActive(), u.Username())
	if err != nil {
		return infra.WrapRepoErr("failed to update user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return infra.WrapRepoErr("failed to update user", err)
	}
	if n == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		id        int64
		username  string
		firstName string
		role      string
		active    bool
	)
	if err := row.Scan(&id, &username, &firstName, &role, &active); err != nil {
		return nil, err
	}
	return user.ReconstructUser(id, username, firstName, user.Role(role), active), nil
}

func isUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
