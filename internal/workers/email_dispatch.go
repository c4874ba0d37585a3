package workers

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/tasks"
)

// HandleEmailSend delivers a queued email log entry and records the outcome
// on the row. Rows already sent are skipped so retried tasks stay safe.
func HandleEmailSend(ctx context.Context, t *asynq.Task, db *gorm.DB, mailer Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParseEmailSendPayload(t)
	if err != nil {
		return err
	}

	var entry models.EmailLog
	if err := models.FindByID(db, payload.EmailLogID, &entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Str("email_log_id", payload.EmailLogID).Msg("Email log row gone, dropping task")
			return nil
		}
		return err
	}

	if entry.Status == models.EmailStatusSent {
		logger.Debug().Str("email_log_id", entry.ID).Msg("Email already sent, skipping")
		return nil
	}

	if err := mailer.Send(ctx, entry.ToEmail, entry.Subject, entry.Body); err != nil {
		logger.Error().Err(err).Str("email_log_id", entry.ID).Str("to", entry.ToEmail).Msg("Email delivery failed")
		db.Model(&entry).Updates(map[string]interface{}{
			"status": models.EmailStatusFailed,
			"error":  err.Error(),
		})
		// Return the error so asynq retries with backoff.
		return err
	}

	now := time.Now().UTC()
	if err := db.Model(&entry).Updates(map[string]interface{}{
		"status":  models.EmailStatusSent,
		"error":   "",
		"sent_at": &now,
	}).Error; err != nil {
		return err
	}

	logger.Info().Str("email_log_id", entry.ID).Str("to", entry.ToEmail).Str("kind", entry.Kind).Msg("Email sent")
	return nil
}
