package gate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultSettleTimeout = 10 * time.Second
	defaultVerifyTimeout = 10 * time.Second
)

// Store is the single source of truth for "who is signed in right now".
// One instance is shared by every protected view; views only read State()
// and call the exposed operations, never mutate directly.
type Store struct {
	provider  Provider
	directory AdminDirectory
	logger    zerolog.Logger

	settleTimeout time.Duration
	verifyTimeout time.Duration

	mu      sync.Mutex
	state   AuthState
	changed chan struct{} // closed and replaced on every state change
	unsub   func()
	closed  bool
}

// Option configures a Store
type Option func(*Store)

// WithSettleTimeout bounds how long SignIn waits for the provider's
// change notification to land before reporting ErrVerificationTimeout.
func WithSettleTimeout(d time.Duration) Option {
	return func(s *Store) { s.settleTimeout = d }
}

// WithVerifyTimeout bounds listener-triggered admin verification calls
func WithVerifyTimeout(d time.Duration) Option {
	return func(s *Store) { s.verifyTimeout = d }
}

// NewStore creates a store and registers exactly one change subscription
// with the provider. Callers must Close the store when done with it so
// remounts do not accumulate duplicate callbacks.
func NewStore(provider Provider, directory AdminDirectory, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		provider:      provider,
		directory:     directory,
		logger:        logger,
		settleTimeout: defaultSettleTimeout,
		verifyTimeout: defaultVerifyTimeout,
		state:         AuthState{Loading: true},
		changed:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsub = provider.OnAuthStateChange(s.handleAuthChange)
	return s
}

// Close unregisters the provider subscription. Callbacks arriving after
// Close are discarded; the store's state no longer changes.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsub
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// State returns a snapshot of the current auth state
func (s *Store) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// apply mutates the state under lock and wakes every waiter. The orphaned
// admin-state invariant is enforced here so no code path can violate it.
func (s *Store) apply(mutate func(*AuthState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	mutate(&s.state)
	if s.state.User == nil {
		s.state.AdminInfo = nil
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

// Bootstrap restores any existing session at startup. The loading flag
// settles to false on every outcome, including provider errors, so the UI
// can never be stuck on the loading view. The returned error is for
// diagnostics only; a failed bootstrap resolves to the signed-out state.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.apply(func(st *AuthState) { st.Loading = true })
	defer s.apply(func(st *AuthState) { st.Loading = false })

	session, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Session restore failed")
		s.apply(func(st *AuthState) { st.User = nil })
		return err
	}

	if session == nil {
		s.apply(func(st *AuthState) { st.User = nil })
		return nil
	}

	s.apply(func(st *AuthState) { st.User = session })
	s.refreshAdmin(session.UserID)
	return nil
}

// SignIn delegates to the provider's password sign-in, then waits for the
// store's own change subscription to apply the resulting session. The
// listener is the sole authority for user state; the direct call's return
// value only starts the wait. Exceeding the bound fails with
// ErrVerificationTimeout rather than hanging or assuming a fixed delay
// was enough.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if _, err := s.provider.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}

	return s.Wait(ctx, func(st AuthState) bool { return st.User != nil })
}

// SignOut delegates to the provider. Local state is cleared even when the
// provider call fails: with the actual provider state ambiguous, the UI
// must favor the logged-out interpretation.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	s.apply(func(st *AuthState) {
		st.User = nil
		st.AdminInfo = nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Provider sign-out failed, local session cleared anyway")
	}
	return err
}

// ResetPassword delegates to the provider. No local state change.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	return s.provider.ResetPasswordForEmail(ctx, email)
}

// Wait blocks until the predicate holds for the current state, the context
// is cancelled, or the settle timeout elapses (ErrVerificationTimeout).
func (s *Store) Wait(ctx context.Context, pred func(AuthState) bool) error {
	deadline := time.NewTimer(s.settleTimeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		st := s.state
		ch := s.changed
		s.mu.Unlock()

		if pred(st) {
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrVerificationTimeout
		}
	}
}

// handleAuthChange reacts to provider-detected session transitions:
// sign-in, sign-out, token refresh, sign-out in another client.
func (s *Store) handleAuthChange(event AuthEvent, session *Session) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	if session == nil {
		s.apply(func(st *AuthState) {
			st.User = nil
			st.AdminInfo = nil
		})
		return
	}

	s.apply(func(st *AuthState) { st.User = session })

	// Admin status is never cached across transitions: it can be revoked
	// server-side at any time, and a token refresh after a long idle must
	// pick that up.
	s.refreshAdmin(session.UserID)
}

// refreshAdmin re-runs the admin lookup for the signed-in user. Lookup
// failures resolve to a nil admin record (fail closed) and are logged
// distinctly for diagnostics.
func (s *Store) refreshAdmin(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.verifyTimeout)
	defer cancel()

	record, err := Verify(ctx, s.directory, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Admin verification failed")
		record = nil
	}

	s.apply(func(st *AuthState) {
		// The session may have changed while the lookup was in flight;
		// a stale result must not attach to a different user.
		if st.User == nil || st.User.UserID != userID {
			return
		}
		st.AdminInfo = record
	})
}
