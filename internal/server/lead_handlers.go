package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/export"
	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/tasks"
)

// CreateLeadRequest is the public marketing-site submission
type CreateLeadRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// UpdateLeadRequest updates lead triage fields
type UpdateLeadRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Company *string `json:"company"`
}

var leadStatuses = map[string]bool{
	models.LeadStatusNew:       true,
	models.LeadStatusContacted: true,
	models.LeadStatusQualified: true,
	models.LeadStatusClosed:    true,
}

// @Summary Submit lead
// @Description Public endpoint the marketing site posts contact forms to
// @Tags leads
// @Accept json
// @Produce json
// @Param request body CreateLeadRequest true "Lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Router /api/leads [post]
func (s *Server) createLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead := &models.Lead{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Source:  req.Source,
		Message: req.Message,
		Status:  models.LeadStatusNew,
	}
	if err := s.db.Create(lead).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create lead")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lead"})
		return
	}

	s.notifyNewLead(lead)

	s.logger.Info().Str("lead_id", lead.ID).Str("source", lead.Source).Msg("Lead created")
	c.JSON(http.StatusCreated, lead)
}

// notifyNewLead queues a notification email when one is configured.
// Best effort: a notification failure never fails the submission.
func (s *Server) notifyNewLead(lead *models.Lead) {
	var cfg models.Config
	if err := s.db.First(&cfg).Error; err != nil || cfg.NotifyEmail == "" {
		return
	}

	entry := &models.EmailLog{
		ToEmail: cfg.NotifyEmail,
		Subject: fmt.Sprintf("New lead: %s", lead.Name),
		Body: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\nCompany: %s\nSource: %s\n\n%s",
			lead.Name, lead.Email, lead.Phone, lead.Company, lead.Source, lead.Message),
		Kind:   "lead_notification",
		Status: models.EmailStatusQueued,
		LeadID: lead.ID,
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.logger.Warn().Err(err).Str("lead_id", lead.ID).Msg("Failed to create lead notification")
		return
	}

	if task, err := tasks.NewEmailSendTask(entry.ID); err == nil {
		s.enqueue(task)
	}
}

// @Summary List leads
// @Description List leads with optional status filter and search
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Lead
// @Router /api/admin/leads [get]
func (s *Server) listLeads(c *gin.Context) {
	query := s.db.Model(&models.Lead{}).Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR company LIKE ?", like, like, like)
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var leads []models.Lead
	if err := query.Limit(limit).Offset(offset).Find(&leads).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list leads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}

	c.JSON(http.StatusOK, leads)
}

// @Summary Get lead
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/leads/{id} [get]
func (s *Server) getLead(c *gin.Context) {
	var lead models.Lead
	if err := models.FindByID(s.db, c.Param("id"), &lead); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		s.logger.Error().Err(err).Str("lead_id", c.Param("id")).Msg("Failed to find lead")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, lead)
}

// @Summary Update lead
// @Description Update triage fields on a lead
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body UpdateLeadRequest true "Updates"
// @Success 200 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/leads/{id} [patch]
func (s *Server) updateLead(c *gin.Context) {
	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lead models.Lead
	if err := models.FindByID(s.db, c.Param("id"), &lead); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find lead")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		if !leadStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}

	if len(updates) > 0 {
		if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("Failed to update lead")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lead"})
			return
		}
	}

	c.JSON(http.StatusOK, lead)
}

// @Summary Delete lead
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/leads/{id} [delete]
func (s *Server) deleteLead(c *gin.Context) {
	var lead models.Lead
	if err := models.FindByID(s.db, c.Param("id"), &lead); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find lead")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&lead).Error; err != nil {
		s.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("Failed to delete lead")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete lead"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Export leads
// @Description Download all leads as CSV, optionally filtered by status
// @Tags leads
// @Produce text/csv
// @Security BearerAuth
// @Success 200
// @Router /api/admin/leads/export [get]
func (s *Server) exportLeads(c *gin.Context) {
	query := s.db.Model(&models.Lead{}).Order("created_at ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load leads for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export leads"})
		return
	}

	fileName := export.LeadsFileName(time.Now())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := export.WriteLeadsCSV(c.Writer, leads); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write CSV export")
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Int("count", len(leads)).
		Str("exported_by", sessionData.UserID).
		Msg("Leads exported")
}
