package request

import (
	"strings"

	"grid-reservation/internal/pkg/timefmt"
)

// User endpoints take query parameters, matching the terminal client.

type UsernameQuery struct {
	Username string `form:"username" binding:"required"`
}

func (q UsernameQuery) Value() string {
	return clean(q.Username)
}

type AddUserQuery struct {
	Username  string `form:"username" binding:"required"`
	FirstName string `form:"first_name" binding:"required"`
	Role      string `form:"role" binding:"required"`
}

func (q AddUserQuery) Values() (username, firstName, role string) {
	return clean(q.Username), clean(q.FirstName), clean(q.Role)
}

type ChangeRoleQuery struct {
	Username string `form:"username" binding:"required"`
	Role     string `form:"role" binding:"required"`
}

func (q ChangeRoleQuery) Values() (username, role string) {
	return clean(q.Username), clean(q.Role)
}

func clean(v string) string {
	return strings.TrimSpace(timefmt.Unquote(v))
}
