package memory

import (
	"context"
	"sync"

	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"
)

type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*user.User
	order  []string
	lastID int64
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]*user.User{}}
}

func (s *UserStore) FindUser(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return copyUser(u), nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, copyUser(s.users[name]))
	}
	return out, nil
}

func (s *UserStore) CreateUser(_ context.Context, u *user.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username()]; ok {
		return 0, infra.WrapRepoErr("username already exists", nil, infra.KindDuplicateKey)
	}
	s.lastID++
	s.users[u.Username()] = user.ReconstructUser(s.lastID, u.Username(), u.FirstName(), u.Role(), u.IsActive())
	s.order = append(s.order, u.Username())
	return s.lastID, nil
}

func (s *UserStore) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.Username()]
	if !ok {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	s.users[u.Username()] = user.ReconstructUser(existing.ID(), u.Username(), u.FirstName(), u.Role(), u.IsActive())
	return nil
}

func copyUser(u *user.User) *user.User {
	return user.ReconstructUser(u.ID(), u.Username(), u.FirstName(), u.Role(), u.IsActive())
}
