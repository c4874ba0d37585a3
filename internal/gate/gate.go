// Package gate implements the admin console's auth/session gate: a small
// state machine over an auth provider and an admin directory that decides,
// at any moment, whether the current operator may see admin content.
//
// The Store owns the only mutable state (user, admin info, loading flag),
// the provider's change subscription is the sole authority for who is
// signed in, and admin status is re-verified on every sign-in transition
// so server-side revocation takes effect on the next check.
package gate

import "time"

// Session mirrors the provider-issued proof of authentication. It is
// read-only from the gate's perspective.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AdminRecord links a user to an active administrative role
type AdminRecord struct {
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// AuthState is the derived client-side state every protected view reads.
// Invariant: AdminInfo is nil whenever User is nil.
type AuthState struct {
	User      *Session
	AdminInfo *AdminRecord
	Loading   bool
}
