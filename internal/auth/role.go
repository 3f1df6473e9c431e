package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the coarse access category carried in every token.
type Role string

const (
	RoleDemo    Role = "demo"
	RoleClient  Role = "client"
	RoleAdmin   Role = "admin"
	RoleService Role = "service"
)

var allRoles = []Role{RoleDemo, RoleClient, RoleAdmin, RoleService}

// ParseRole rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is the set of roles allowed through a gate.
type RoleSet map[Role]struct{}

func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

var (
	AdminOnly      = Roles(RoleAdmin)
	AdminAndClient = Roles(RoleAdmin, RoleClient)
	AllUsers       = Roles(RoleAdmin, RoleClient, RoleDemo)
	AnyRole        = Roles(allRoles...)
)
