package domain

import (
	"context"
	"errors"
)

// User is the caller identity supplied by the identity layer. The ledger
// trusts it and never authenticates on its own.
type User struct {
	ID   string
	Role Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin may run integrity rebuilds and manage project data
	RoleAdmin Role = "admin"

	// RoleOperator may append and transition ledger records
	RoleOperator Role = "operator"

	// RolePartner may only read its own wallet
	RolePartner Role = "partner"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RolePartner:
		return true
	}
	return false
}

// CanWrite reports whether the role may mutate ledger state.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser attaches the caller to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the caller, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

// ActorID is the audit identity for ctx: the caller id or "system".
func ActorID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return "system"
}
