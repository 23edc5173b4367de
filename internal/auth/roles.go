package auth

import "strings"

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleProfessional Role = "PROFESSIONAL"
	RoleCustomer     Role = "CUSTOMER"
)

func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleProfessional:
		return RoleProfessional, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }
