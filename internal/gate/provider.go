package gate

import "context"

// AuthEvent describes a session transition observed by the provider
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
)

// Provider is the external authentication capability. Any provider exposing
// this operation set is substitutable; implementations must classify their
// failures into the gate's error taxonomy (ErrInvalidCredentials, ErrNetwork)
// so raw transport errors never reach the UI layer.
type Provider interface {
	// GetSession returns a restorable session, or nil when none exists.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword authenticates with email and password. On success
	// the provider must also notify its change subscribers; callers treat
	// the returned session only as a trigger to begin waiting for that
	// notification, never as authoritative state.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error

	// ResetPasswordForEmail starts a password reset. Pure pass-through.
	ResetPasswordForEmail(ctx context.Context, email string) error

	// OnAuthStateChange registers a callback invoked on every session
	// transition (sign-in, sign-out, token refresh, cross-client sign-out).
	// The returned function unregisters the callback.
	OnAuthStateChange(fn func(event AuthEvent, session *Session)) (unsubscribe func())
}

// AdminDirectory is the admin-table lookup collaborator.
type AdminDirectory interface {
	// FindActiveAdminByUserID returns the active admin record for userID,
	// or nil when no active record exists. "Not an admin" is a normal nil
	// result, not an error; errors mean the lookup itself failed.
	FindActiveAdminByUserID(ctx context.Context, userID string) (*AdminRecord, error)

	// TouchLastLogin records a successful login. Best effort.
	TouchLastLogin(ctx context.Context, userID string) error
}
