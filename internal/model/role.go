package model

import (
	"errors"
	"fmt"
)

// Role is the coarse permission class of an Identity. The zero value is not a
// valid role so an unset field never authorizes anything.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
