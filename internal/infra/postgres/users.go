package postgres

import (
	"context"

	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{db: pool}
}

func (s *UserStore) FindUser(ctx context.Context, username string) (*user.User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, username, first_name, role, active FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return u, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `SELECT id, username, first_name, role, active FROM users ORDER BY id`)
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
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, first_name, role, active) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Username(), u.FirstName(), u.Role().String(), u.IsActive()).Scan(&id)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return 0, infra.WrapRepoErr("username already exists", err, infra.KindDuplicateKey)
		}
		return 0, infra.WrapRepoErr("failed to create user", err)
	}
	return id, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u *user.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET first_name = $2, role = $3, active = $4 WHERE username = $1`,
		u.Username(), u.FirstName(), u.Role().String(), u.IsActive())
	if err != nil {
		return infra.WrapRepoErr("failed to update user", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
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
