package response

import (
	"grid-reservation/internal/domain/user"

	"github.com/jinzhu/copier"
)

type LoginResponse struct {
	Success   bool   `json:"success"`
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// UserResponse field names follow the user.User getters so copier can
// fill it.
type UserResponse struct {
	ID        int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"active"`
}

type UserList struct {
	Users []UserResponse `json:"users"`
}

func FromUser(u *user.User) (UserResponse, error) {
	var out UserResponse
	if err := copier.Copy(&out, u); err != nil {
		return UserResponse{}, err
	}
	return out, nil
}

func FromUsers(list []*user.User) (UserList, error) {
	out := UserList{Users: make([]UserResponse, 0, len(list))}
	for _, u := range list {
		r, err := FromUser(u)
		if err != nil {
			return UserList{}, err
		}
		out.Users = append(out.Users, r)
	}
	return out, nil
}

func NewLoginResponse(u *user.User) LoginResponse {
	return LoginResponse{
		Success:   true,
		ID:        u.ID(),
		Role:      u.Role().String(),
		Username:  u.Username(),
		FirstName: u.FirstName(),
	}
}
