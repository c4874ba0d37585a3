package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/hirewithprachi/console/internal/models"
)

// UpdateConfigRequest holds the editable site configuration fields
type UpdateConfigRequest struct {
	SiteName              *string `json:"site_name"`
	NotifyEmail           *string `json:"notify_email"`
	RetentionSchedule     *string `json:"retention_schedule"`
	EmailLogRetentionDays *int    `json:"email_log_retention_days"`
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// @Summary Get site configuration
// @Tags config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Config
// @Router /api/admin/config [get]
func (s *Server) getConfig(c *gin.Context) {
	var cfg models.Config
	if err := s.db.First(&cfg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load configuration"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// @Summary Update site configuration
// @Description Updates site settings. Changing the retention schedule
// @Description recalculates the next sweep time.
// @Tags config
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Config
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/config [patch]
func (s *Server) updateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var cfg models.Config
	if err := s.db.First(&cfg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load configuration"})
		return
	}

	updates := map[string]interface{}{}

	if req.SiteName != nil {
		if *req.SiteName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Site name cannot be empty"})
			return
		}
		updates["site_name"] = *req.SiteName
	}

	if req.NotifyEmail != nil {
		if *req.NotifyEmail != "" {
			if err := s.validator.Var(*req.NotifyEmail, "email"); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification email"})
				return
			}
		}
		updates["notify_email"] = *req.NotifyEmail
	}

	if req.EmailLogRetentionDays != nil {
		if *req.EmailLogRetentionDays < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Retention days must be at least 1"})
			return
		}
		updates["email_log_retention_days"] = *req.EmailLogRetentionDays
	}

	if req.RetentionSchedule != nil {
		schedule := *req.RetentionSchedule
		updates["retention_schedule"] = schedule
		if schedule == "" {
			// Empty schedule disables sweeps
			updates["next_sweep_at"] = nil
		} else {
			parsed, err := cronParser.Parse(schedule)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron expression", "details": err.Error()})
				return
			}
			next := parsed.Next(time.Now())
			updates["next_sweep_at"] = &next
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := s.db.Model(&cfg).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update configuration"})
		return
	}

	// Re-read so the response reflects what was stored
	if err := s.db.First(&cfg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to reload config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load configuration"})
		return
	}

	s.logger.Info().Interface("updates", updates).Msg("Configuration updated")
	c.JSON(http.StatusOK, cfg)
}
