package user

type Role string

const (
	// RoleScheduler books and cancels on behalf of any customer.
	RoleScheduler Role = "scheduler"
	// RoleCustomer manages their own reservations only.
	RoleCustomer Role = "customer"
	// RoleAdmin manages the user directory.
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleScheduler, RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
