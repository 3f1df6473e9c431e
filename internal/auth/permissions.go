package auth

import "sort"

// PermissionSet is a set of named capabilities.
type PermissionSet map[string]struct{}

func Permissions(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Missing returns the members of required absent from granted, sorted.
func Missing(required, granted PermissionSet) []string {
	var out []string
	for name := range required {
		if !granted.Has(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsSubset reports whether every required permission is granted.
// An empty requirement is always satisfied.
func IsSubset(required, granted PermissionSet) bool {
	for name := range required {
		if !granted.Has(name) {
			return false
		}
	}
	return true
}
