package gate

import (
	"errors"
	"fmt"
)

// Error taxonomy. Everything the provider or directory can fail with is
// converted to one of these before it reaches a view; none of them is
// fatal to the process.
var (
	// ErrInvalidCredentials means the provider rejected the password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNetwork means the provider was unreachable.
	ErrNetwork = errors.New("authentication service unreachable")

	// ErrLookup means the admin-table query failed for reasons other than
	// "no record". Callers treat it as "cannot confirm admin status" and
	// fail closed.
	ErrLookup = errors.New("admin status lookup failed")

	// ErrAccessDenied means the credentials were valid but the account
	// holds no active admin role.
	ErrAccessDenied = errors.New("account does not have admin access")

	// ErrVerificationTimeout means the post-sign-in wait for session
	// propagation exceeded its bound.
	ErrVerificationTimeout = errors.New("timed out waiting for session to settle")
)

// ValidationError reports malformed local input, caught before any
// network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
