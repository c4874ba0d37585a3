package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Outbound email delivery for a queued email log row
	TypeEmailSend = "email:send"

	// Best-effort last-login touch on an admin grant
	TypeAdminTouchLastLogin = "admin:touch_last_login"

	// Scheduled deletion of email logs past the retention window
	TypeEmailLogSweep = "emaillog:retention_sweep"
)

// EmailSendPayload identifies the email log row to deliver
type EmailSendPayload struct {
	EmailLogID string `json:"email_log_id"`
}

// AdminTouchPayload identifies the admin grant to touch
type AdminTouchPayload struct {
	UserID string `json:"user_id"`
}

// NewEmailSendTask creates a task to deliver a queued email log entry
func NewEmailSendTask(emailLogID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailSendPayload{EmailLogID: emailLogID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, payload), nil
}

// NewAdminTouchTask creates a task recording a successful admin login
func NewAdminTouchTask(userID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AdminTouchPayload{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeAdminTouchLastLogin, payload), nil
}

// NewEmailLogSweepTask creates a retention sweep task
func NewEmailLogSweepTask() *asynq.Task {
	return asynq.NewTask(TypeEmailLogSweep, nil)
}

// ParseEmailSendPayload parses an email delivery payload
func ParseEmailSendPayload(task *asynq.Task) (EmailSendPayload, error) {
	var payload EmailSendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseAdminTouchPayload parses a last-login touch payload
func ParseAdminTouchPayload(task *asynq.Task) (AdminTouchPayload, error) {
	var payload AdminTouchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
