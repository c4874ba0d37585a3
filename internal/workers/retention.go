package workers

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/tasks"
)

// HandleEmailLogSweep deletes sent and failed email logs older than the
// configured retention window. Queued rows are never swept.
func HandleEmailLogSweep(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	var cfg models.Config
	if err := db.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("No config found - skipping retention sweep")
			return nil
		}
		return err
	}

	if cfg.EmailLogRetentionDays <= 0 {
		logger.Debug().Msg("Email log retention disabled")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -cfg.EmailLogRetentionDays)
	result := db.Where("created_at < ? AND status IN ?", cutoff,
		[]string{models.EmailStatusSent, models.EmailStatusFailed}).
		Delete(&models.EmailLog{})
	if result.Error != nil {
		return result.Error
	}

	now := time.Now().UTC()
	next := nextSweepTime(cfg.RetentionSchedule, now)
	if err := db.Model(&cfg).Updates(map[string]interface{}{
		"last_sweep_at": &now,
		"next_sweep_at": next,
	}).Error; err != nil {
		logger.Warn().Err(err).Msg("Failed to record sweep completion")
	}

	logger.Info().
		Int64("deleted", result.RowsAffected).
		Time("cutoff", cutoff).
		Msg("Email log retention sweep complete")
	return nil
}

// StartRetentionScheduler runs a periodic check (every minute) and enqueues
// a sweep whenever the configured cron schedule says one is due
func StartRetentionScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueSweep(client, db, logger)

	for range ticker.C {
		checkAndEnqueueSweep(client, db, logger)
	}
}

func checkAndEnqueueSweep(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	var cfg models.Config
	if err := db.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("No config found - skipping sweep check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query config for sweep check")
		return
	}

	if cfg.RetentionSchedule == "" {
		logger.Debug().Msg("No retention schedule configured")
		return
	}

	now := time.Now()
	if cfg.NextSweepAt == nil {
		// First run after the schedule was configured: just record the
		// next slot without sweeping immediately.
		next := nextSweepTime(cfg.RetentionSchedule, now)
		if next == nil {
			logger.Warn().Str("schedule", cfg.RetentionSchedule).Msg("Invalid retention schedule")
			return
		}
		if err := db.Model(&cfg).Update("next_sweep_at", next).Error; err != nil {
			logger.Error().Err(err).Msg("Failed to store next sweep time")
		}
		return
	}

	if cfg.NextSweepAt.After(now) {
		logger.Debug().Time("next_sweep_at", *cfg.NextSweepAt).Msg("Sweep not due yet")
		return
	}

	if _, err := client.Enqueue(tasks.NewEmailLogSweepTask(), asynq.Queue("low")); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue retention sweep")
		return
	}

	// Advance the schedule now so a slow sweep is not enqueued twice.
	next := nextSweepTime(cfg.RetentionSchedule, now)
	if err := db.Model(&cfg).Update("next_sweep_at", next).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to advance sweep schedule")
	}

	logger.Info().Str("schedule", cfg.RetentionSchedule).Msg("Retention sweep enqueued")
}

// nextSweepTime calculates the next sweep time from a cron expression
func nextSweepTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
