package contract

import (
	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

// RoleTable maps Role ordinals to one vendor's role names.
// An empty entry means the vendor has no wire name for that role.
type RoleTable [3]string

// Name returns the vendor name for r.
func (t RoleTable) Name(r Role) string {
	if r < RoleSystem || r > RoleUser {
		return ""
	}
	return t[r]
}

// Role resolves a vendor role name.
func (t RoleTable) Role(name string) (Role, error) {
	if name != "" {
		for i, n := range t {
			if n == name {
				return Role(i), nil
			}
		}
	}
	return 0, apperrors.ResponseFormat("LLM returned message with an unknown role.")
}
