package auth

import "time"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	AuthMethod string    `json:"auth_method"` // "web", "cli"
	ExpiresAt  time.Time `json:"expires_at"`
}
