package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/tasks"
)

// HandleAdminTouchLastLogin stamps the admin grant's last login time.
// Best effort: a missing grant (revoked between login and task execution)
// is not an error worth retrying.
func HandleAdminTouchLastLogin(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseAdminTouchPayload(t)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result := db.Model(&models.AdminGrant{}).
		Where("user_id = ?", payload.UserID).
		Update("last_login_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Debug().Str("user_id", payload.UserID).Msg("No admin grant to touch")
		return nil
	}

	logger.Debug().Str("user_id", payload.UserID).Msg("Recorded admin last login")
	return nil
}
