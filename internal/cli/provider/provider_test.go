package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirewithprachi/console/internal/gate"
)

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]string)}
}

func (m *memoryTokenStore) SaveToken(host, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[host] = token
	return nil
}

func (m *memoryTokenStore) LoadToken(host string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[host]
	if !ok {
		return "", errors.New("not authenticated")
	}
	return token, nil
}

func (m *memoryTokenStore) DeleteToken(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, host)
	return nil
}

// fakeConsole is a minimal in-memory stand-in for the console API
type fakeConsole struct {
	mu       sync.Mutex
	email    string
	password string
	userID   string
	token    string
	isAdmin  bool
	touched  int
}

func (f *fakeConsole) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if req.Email != f.email || req.Password != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      f.token,
			"expires_at": time.Now().Add(time.Hour),
			"user": map[string]interface{}{
				"id": f.userID, "email": f.email, "name": "Test", "is_admin": f.isAdmin,
			},
		})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			token := f.token
			f.mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]interface{}{
				"id": f.userID, "email": f.email, "name": "Test", "is_admin": f.isAdmin,
			},
			"expires_at": time.Now().Add(time.Hour),
		})
	}))

	mux.HandleFunc("/api/auth/admin", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.isAdmin {
			json.NewEncoder(w).Encode(map[string]interface{}{"admin": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"admin": map[string]interface{}{
				"id": "g1", "user_id": f.userID, "role": "admin", "is_active": true,
			},
		})
	}))

	mux.HandleFunc("/api/auth/admin/touch", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.touched++
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))

	return mux
}

func newTestRemote(t *testing.T, console *fakeConsole) (*Remote, *memoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(console.handler(t))
	t.Cleanup(srv.Close)

	store := newMemoryTokenStore()
	return New(srv.URL, store), store
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSignInEmitsEventAndStoresToken(t *testing.T) {
	console := &fakeConsole{
		email: "admin@example.com", password: "secret123",
		userID: "user-1", token: "jwt-1", isAdmin: true,
	}
	remote, store := newTestRemote(t, console)

	var mu sync.Mutex
	var events []gate.AuthEvent
	unsub := remote.OnAuthStateChange(func(event gate.AuthEvent, session *gate.Session) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})
	defer unsub()

	session, err := remote.SignInWithPassword(context.Background(), "admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)

	token, err := store.LoadToken(remote.host)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", token)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1 && events[0] == gate.EventSignedIn
	})
}

func TestSignInWrongPassword(t *testing.T) {
	console := &fakeConsole{
		email: "admin@example.com", password: "secret123",
		userID: "user-1", token: "jwt-1",
	}
	remote, store := newTestRemote(t, console)

	_, err := remote.SignInWithPassword(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, gate.ErrInvalidCredentials)

	_, err = store.LoadToken(remote.host)
	assert.Error(t, err)
}

func TestSignInUnreachableServer(t *testing.T) {
	remote := New("http://127.0.0.1:1", newMemoryTokenStore())

	_, err := remote.SignInWithPassword(context.Background(), "admin@example.com", "secret123")
	assert.ErrorIs(t, err, gate.ErrNetwork)
}

func TestGetSessionRestoresFromStoredToken(t *testing.T) {
	console := &fakeConsole{
		email: "admin@example.com", password: "secret123",
		userID: "user-1", token: "jwt-1", isAdmin: true,
	}
	remote, store := newTestRemote(t, console)

	// No token stored: no session, no error
	session, err := remote.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, store.SaveToken(remote.host, "jwt-1"))

	session, err = remote.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "jwt-1", session.AccessToken)
}

func TestGetSessionDropsStaleToken(t *testing.T) {
	console := &fakeConsole{
		email: "admin@example.com", password: "secret123",
		userID: "user-1", token: "jwt-current",
	}
	remote, store := newTestRemote(t, console)

	require.NoError(t, store.SaveToken(remote.host, "jwt-old"))

	session, err := remote.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	// The rejected token was cleaned up
	_, err = store.LoadToken(remote.host)
	assert.Error(t, err)
}

func TestGateOverRemoteProvider(t *testing.T) {
	console := &fakeConsole{
		email: "admin@example.com", password: "secret123",
		userID: "user-1", token: "jwt-1", isAdmin: true,
	}
	remote, _ := newTestRemote(t, console)

	store := gate.NewStore(remote, remote, zerolog.Nop())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, store.Bootstrap(ctx))
	assert.Equal(t, gate.ViewLogin, gate.Decide(store.State()))

	flow := gate.NewLoginFlow(store, remote, zerolog.Nop())
	require.NoError(t, flow.Submit(ctx, "admin@example.com", "secret123", nil))

	waitFor(t, func() bool {
		return gate.Decide(store.State()) == gate.ViewContent
	})

	state := store.State()
	require.NotNil(t, state.AdminInfo)
	assert.Equal(t, "admin", state.AdminInfo.Role)
}

func TestGateDeniesNonAdminAccount(t *testing.T) {
	console := &fakeConsole{
		email: "user@example.com", password: "secret123",
		userID: "user-2", token: "jwt-2", isAdmin: false,
	}
	remote, tokens := newTestRemote(t, console)

	store := gate.NewStore(remote, remote, zerolog.Nop())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, store.Bootstrap(ctx))

	flow := gate.NewLoginFlow(store, remote, zerolog.Nop())
	err := flow.Submit(ctx, "user@example.com", "secret123", nil)
	assert.ErrorIs(t, err, gate.ErrAccessDenied)

	// The denied session was signed back out and the token discarded
	waitFor(t, func() bool {
		return store.State().User == nil
	})
	_, err = tokens.LoadToken(remote.host)
	assert.Error(t, err)
}
