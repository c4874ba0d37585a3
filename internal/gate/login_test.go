package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestFlow(t *testing.T, provider *fakeProvider, directory *fakeDirectory) (*LoginFlow, *Store) {
	t.Helper()
	store := newTestStore(t, provider, directory)
	return NewLoginFlow(store, directory, zerolog.Nop()), store
}

func TestSubmitValidation(t *testing.T) {
	flow, _ := newTestFlow(t, newFakeProvider(), newFakeDirectory())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret"},
		{"email without at sign", "adminx.com", "secret"},
		{"empty password", "admin@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := flow.Submit(context.Background(), tt.email, tt.password, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSubmitAdminLogin(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("admin@x.com", "correctpw", "user-1")
	directory := newFakeDirectory()
	directory.grantAdmin("user-1")

	flow, store := newTestFlow(t, provider, directory)

	continued := false
	err := flow.Submit(context.Background(), "admin@x.com", "correctpw", func() {
		continued = true
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !continued {
		t.Fatal("continuation was not invoked")
	}

	state := waitFor(t, store, func(st AuthState) bool { return st.AdminInfo != nil })
	if view := Decide(state); view != ViewContent {
		t.Fatalf("expected content view, got %s", view)
	}

	// Last-login touch is best effort and asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(directory.touchedUsers()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if touched := directory.touchedUsers(); len(touched) != 1 || touched[0] != "user-1" {
		t.Fatalf("expected last-login touch for user-1, got %v", touched)
	}
}

func TestSubmitNonAdminSignedBackOut(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("user@x.com", "correctpw", "user-2")
	directory := newFakeDirectory() // no admin record for user-2

	flow, store := newTestFlow(t, provider, directory)

	err := flow.Submit(context.Background(), "user@x.com", "correctpw", func() {
		t.Fatal("continuation must not run for non-admin accounts")
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	// The non-admin session must not persist past the login screen.
	if session, _ := provider.GetSession(context.Background()); session != nil {
		t.Fatalf("provider still has a session: %+v", session)
	}
	state := waitFor(t, store, func(st AuthState) bool { return st.User == nil })
	if state.AdminInfo != nil {
		t.Fatalf("admin info without user: %+v", state)
	}
}

func TestSubmitWrongPassword(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("admin@x.com", "correctpw", "user-1")

	flow, store := newTestFlow(t, provider, newFakeDirectory())

	err := flow.Submit(context.Background(), "admin@x.com", "wrongpw", nil)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if state := store.State(); state.User != nil {
		t.Fatalf("state mutated by rejected sign-in: %+v", state)
	}
}

func TestSubmitNetworkError(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = ErrNetwork

	flow, _ := newTestFlow(t, provider, newFakeDirectory())

	err := flow.Submit(context.Background(), "admin@x.com", "correctpw", nil)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSubmitLookupErrorFailsClosed(t *testing.T) {
	provider := newFakeProvider()
	provider.addUser("admin@x.com", "correctpw", "user-1")
	directory := newFakeDirectory()
	directory.grantAdmin("user-1")
	directory.lookupErr = errors.New("backend unreachable")

	flow, store := newTestFlow(t, provider, directory)

	err := flow.Submit(context.Background(), "admin@x.com", "correctpw", func() {
		t.Fatal("continuation must not run when admin status cannot be confirmed")
	})
	if !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
	if view := Decide(store.State()); view == ViewContent {
		t.Fatal("content rendered despite unconfirmed admin status")
	}
}

func TestVerifyTreatsInactiveRecordAsNotAdmin(t *testing.T) {
	directory := newFakeDirectory()
	directory.records["user-3"] = &AdminRecord{UserID: "user-3", Role: "admin", IsActive: false}

	record, err := Verify(context.Background(), directory, "user-3")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if record != nil {
		t.Fatalf("inactive grant treated as admin: %+v", record)
	}
}
