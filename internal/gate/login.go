package gate

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const touchTimeout = 5 * time.Second

// LoginFlow collects credentials and drives the store to a settled,
// verified state, surfacing taxonomy errors to the caller.
type LoginFlow struct {
	store     *Store
	directory AdminDirectory
	logger    zerolog.Logger
}

// NewLoginFlow creates a login flow over a store and directory
func NewLoginFlow(store *Store, directory AdminDirectory, logger zerolog.Logger) *LoginFlow {
	return &LoginFlow{store: store, directory: directory, logger: logger}
}

// Submit validates credentials, signs in, waits for the session to settle,
// and verifies admin status before declaring success. A signed-in but
// non-admin session must not persist past the login screen, so
// ErrAccessDenied signs the user back out. onSuccess is the caller's
// continuation (e.g. navigate to the dashboard).
func (f *LoginFlow) Submit(ctx context.Context, email, password string, onSuccess func()) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	// SignIn resolves only after the store's own subscription has applied
	// the new session, so the admin check below cannot race it into a
	// false negative.
	if err := f.store.SignIn(ctx, email, password); err != nil {
		return err
	}

	state := f.store.State()
	if state.User == nil {
		return ErrVerificationTimeout
	}

	// Re-check here even though the listener already triggered one: the
	// caller needs the result synchronously to decide the login outcome.
	record, err := Verify(ctx, f.directory, state.User.UserID)
	if err != nil {
		// Cannot confirm admin status: the route gate will fail closed on
		// the missing admin info.
		return err
	}
	if record == nil {
		if err := f.store.SignOut(ctx); err != nil {
			f.logger.Warn().Err(err).Msg("Sign-out after denied login failed")
		}
		return ErrAccessDenied
	}

	// Best-effort last-login touch; never blocks or fails the login.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := f.directory.TouchLastLogin(ctx, record.UserID); err != nil {
			f.logger.Warn().Err(err).Str("user_id", record.UserID).Msg("Failed to record last login")
		}
	}()

	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	return nil
}
