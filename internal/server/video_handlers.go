package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
)

// CreateVideoRequest creates a video entry
type CreateVideoRequest struct {
	Title       string `json:"title" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	IsPublished bool   `json:"is_published"`
}

// UpdateVideoRequest updates a video entry
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Provider    *string `json:"provider"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	IsPublished *bool   `json:"is_published"`
}

// @Summary List videos
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Video
// @Router /api/admin/videos [get]
func (s *Server) listVideos(c *gin.Context) {
	var videos []models.Video
	if err := s.db.Order("position ASC, created_at DESC").Find(&videos).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list videos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list videos"})
		return
	}

	c.JSON(http.StatusOK, videos)
}

// @Summary Create video
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateVideoRequest true "Video"
// @Success 201 {object} models.Video
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/videos [post]
func (s *Server) createVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video := &models.Video{
		Title:       req.Title,
		URL:         req.URL,
		Provider:    req.Provider,
		Description: req.Description,
		Position:    req.Position,
		IsPublished: req.IsPublished,
	}
	if err := s.db.Create(video).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create video")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create video"})
		return
	}

	s.logger.Info().Str("video_id", video.ID).Msg("Video created")
	c.JSON(http.StatusCreated, video)
}

// @Summary Update video
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Param request body UpdateVideoRequest true "Updates"
// @Success 200 {object} models.Video
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/videos/{id} [patch]
func (s *Server) updateVideo(c *gin.Context) {
	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var video models.Video
	if err := models.FindByID(s.db, c.Param("id"), &video); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find video")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Provider != nil {
		updates["provider"] = *req.Provider
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if len(updates) > 0 {
		if err := s.db.Model(&video).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("video_id", video.ID).Msg("Failed to update video")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update video"})
			return
		}
	}

	c.JSON(http.StatusOK, video)
}

// @Summary Delete video
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/videos/{id} [delete]
func (s *Server) deleteVideo(c *gin.Context) {
	var video models.Video
	if err := models.FindByID(s.db, c.Param("id"), &video); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find video")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&video).Error; err != nil {
		s.logger.Error().Err(err).Str("video_id", video.ID).Msg("Failed to delete video")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete video"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List published videos
// @Description Public listing for the marketing site
// @Tags videos
// @Produce json
// @Success 200 {array} models.Video
// @Router /api/videos [get]
func (s *Server) listPublishedVideos(c *gin.Context) {
	var videos []models.Video
	if err := s.db.Where("is_published = ?", true).
		Order("position ASC, created_at DESC").Find(&videos).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list published videos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list videos"})
		return
	}

	c.JSON(http.StatusOK, videos)
}
