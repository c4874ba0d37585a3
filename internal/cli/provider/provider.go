// Package provider adapts the console's HTTP API and the OS keyring into
// the gate's Provider and AdminDirectory collaborators, so the CLI drives
// the same session state machine the web console does.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hirewithprachi/console/internal/cli/auth"
	"github.com/hirewithprachi/console/internal/cli/client"
	"github.com/hirewithprachi/console/internal/gate"
)

// Remote implements gate.Provider and gate.AdminDirectory over the console
// API, persisting tokens in a TokenStore keyed by server host.
type Remote struct {
	host   string
	api    *client.Client
	tokens auth.TokenStore

	mu        sync.Mutex
	listeners map[int]func(gate.AuthEvent, *gate.Session)
	nextID    int
}

// New creates a provider for the given server host
func New(host string, tokens auth.TokenStore) *Remote {
	return &Remote{
		host:      host,
		api:       client.New(host, tokens),
		tokens:    tokens,
		listeners: make(map[int]func(gate.AuthEvent, *gate.Session)),
	}
}

// Client exposes the underlying API client for calls outside the gate's scope
func (r *Remote) Client() *client.Client {
	return r.api
}

// GetSession restores a session from the stored token by asking the server
// who it belongs to. A missing or rejected token is "no session", not an
// error; only transport failures are reported.
func (r *Remote) GetSession(ctx context.Context) (*gate.Session, error) {
	token, err := r.tokens.LoadToken(r.host)
	if err != nil {
		return nil, nil
	}

	me, err := r.api.Me()
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			// Stale token: drop it so the next restore is clean
			_ = r.tokens.DeleteToken(r.host)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", gate.ErrNetwork, err)
	}

	return &gate.Session{
		UserID:      me.User.ID,
		Email:       me.User.Email,
		AccessToken: token,
		ExpiresAt:   me.ExpiresAt,
	}, nil
}

// SignInWithPassword authenticates, stores the token, and notifies
// subscribers of the new session.
func (r *Remote) SignInWithPassword(ctx context.Context, email, password string) (*gate.Session, error) {
	resp, err := r.api.Login(email, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, gate.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", gate.ErrNetwork, err)
	}

	if err := r.tokens.SaveToken(r.host, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	session := &gate.Session{
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		AccessToken: resp.Token,
		ExpiresAt:   resp.ExpiresAt,
	}

	r.emit(gate.EventSignedIn, session)
	return session, nil
}

// SignOut discards the stored token. Tokens are stateless on the server
// side, so sign-out is purely local.
func (r *Remote) SignOut(ctx context.Context) error {
	err := r.tokens.DeleteToken(r.host)
	r.emit(gate.EventSignedOut, nil)
	return err
}

// ResetPasswordForEmail starts a password reset
func (r *Remote) ResetPasswordForEmail(ctx context.Context, email string) error {
	if err := r.api.RequestPasswordReset(email); err != nil {
		return fmt.Errorf("%w: %v", gate.ErrNetwork, err)
	}
	return nil
}

// OnAuthStateChange registers a session-transition callback
func (r *Remote) OnAuthStateChange(fn func(event gate.AuthEvent, session *gate.Session)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// emit notifies subscribers asynchronously, mirroring how auth SDKs deliver
// their change events outside the caller's stack.
func (r *Remote) emit(event gate.AuthEvent, session *gate.Session) {
	r.mu.Lock()
	fns := make([]func(gate.AuthEvent, *gate.Session), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		go fn(event, session)
	}
}

// FindActiveAdminByUserID asks the server for the caller's active admin
// grant. The endpoint derives the user from the token, so userID is only
// checked against the response.
func (r *Remote) FindActiveAdminByUserID(ctx context.Context, userID string) (*gate.AdminRecord, error) {
	grant, err := r.api.AdminLookup()
	if err != nil {
		return nil, err
	}
	if grant == nil || grant.UserID != userID {
		return nil, nil
	}

	return &gate.AdminRecord{
		UserID:      grant.UserID,
		Role:        grant.Role,
		IsActive:    grant.IsActive,
		LastLoginAt: grant.LastLoginAt,
	}, nil
}

// TouchLastLogin records a successful login. Best effort.
func (r *Remote) TouchLastLogin(ctx context.Context, userID string) error {
	return r.api.TouchAdmin()
}
