package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/tasks"
)

// @Summary List email logs
// @Description List outbound email attempts, newest first
// @Tags email-logs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.EmailLog
// @Router /api/admin/email-logs [get]
func (s *Server) listEmailLogs(c *gin.Context) {
	query := s.db.Model(&models.EmailLog{}).Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	var logs []models.EmailLog
	if err := query.Limit(limit).Find(&logs).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list email logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list email logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// @Summary Get email log
// @Tags email-logs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Email log ID"
// @Success 200 {object} models.EmailLog
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/email-logs/{id} [get]
func (s *Server) getEmailLog(c *gin.Context) {
	var entry models.EmailLog
	if err := models.FindByID(s.db, c.Param("id"), &entry); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email log not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find email log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// @Summary Retry failed email
// @Description Re-queues a failed email for delivery
// @Tags email-logs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Email log ID"
// @Success 202 {object} models.EmailLog
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/email-logs/{id}/retry [post]
func (s *Server) retryEmailLog(c *gin.Context) {
	var entry models.EmailLog
	if err := models.FindByID(s.db, c.Param("id"), &entry); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email log not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find email log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if entry.Status != models.EmailStatusFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only failed emails can be retried"})
		return
	}

	if err := s.db.Model(&entry).Updates(map[string]interface{}{
		"status": models.EmailStatusQueued,
		"error":  "",
	}).Error; err != nil {
		s.logger.Error().Err(err).Str("email_log_id", entry.ID).Msg("Failed to re-queue email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry email"})
		return
	}

	if task, err := tasks.NewEmailSendTask(entry.ID); err == nil {
		s.enqueue(task)
	}

	s.logger.Info().Str("email_log_id", entry.ID).Msg("Email re-queued")
	c.JSON(http.StatusAccepted, entry)
}
