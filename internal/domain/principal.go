// Package domain holds the types shared by every procurement module: the
// request principal and the error taxonomy.
package domain

import (
	"context"
	"strings"
)

// Role is the principal's role as supplied by the identity provider
type Role string

const (
	RoleLogistics Role = "logistics"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleLogistics, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller. The core trusts it verbatim.
type Principal struct {
	ID           string `json:"principalId"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
}

// Validate checks the principal is usable by the core
func (p Principal) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "principalId", Reason: "is required"}
	}
	if !p.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be logistics, vendor or admin"}
	}
	if p.Role == RoleVendor && strings.TrimSpace(p.Organization) == "" {
		return &ValidationError{Field: "organization", Reason: "is required for vendor principals"}
	}
	return nil
}

// SeesEverything reports whether the principal has unfiltered visibility
func (p Principal) SeesEverything() bool {
	return p.Role == RoleLogistics || p.Role == RoleAdmin
}

// IsVendor reports whether the principal acts for a vendor organization
func (p Principal) IsVendor() bool {
	return p.Role == RoleVendor
}

type principalKey struct{}

// WithPrincipal returns a context carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
