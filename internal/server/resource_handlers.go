package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
)

// UpdateResourceRequest updates resource metadata
type UpdateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

const maxResourceSize = 32 << 20 // 32MB

// @Summary List resources
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Resource
// @Router /api/admin/resources [get]
func (s *Server) listResources(c *gin.Context) {
	var resources []models.Resource
	if err := s.db.Order("created_at DESC").Find(&resources).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list resources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list resources"})
		return
	}

	c.JSON(http.StatusOK, resources)
}

// @Summary Upload resource
// @Description Multipart upload: file plus title and description fields
// @Tags resources
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Resource
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/resources [post]
func (s *Server) uploadResource(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if fileHeader.Size > maxResourceSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 32MB limit"})
		return
	}

	// Never trust the upload name for the on-disk path
	baseName := filepath.Base(fileHeader.Filename)
	storageName := fmt.Sprintf("%s_%s", ulid.Make().String(), baseName)
	destPath := filepath.Join(s.config.Storage.Dir, storageName)

	if err := c.SaveUploadedFile(fileHeader, destPath); err != nil {
		s.logger.Error().Err(err).Str("path", destPath).Msg("Failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	resource := &models.Resource{
		Title:       title,
		Description: c.PostForm("description"),
		FileName:    baseName,
		StoragePath: storageName,
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
	}
	if err := s.db.Create(resource).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create resource")
		// Do not leave an orphaned file behind
		os.Remove(destPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create resource"})
		return
	}

	s.logger.Info().
		Str("resource_id", resource.ID).
		Str("file_name", resource.FileName).
		Int64("size_bytes", resource.SizeBytes).
		Msg("Resource uploaded")
	c.JSON(http.StatusCreated, resource)
}

// @Summary Update resource metadata
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param request body UpdateResourceRequest true "Updates"
// @Success 200 {object} models.Resource
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/resources/{id} [patch]
func (s *Server) updateResource(c *gin.Context) {
	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resource models.Resource
	if err := models.FindByID(s.db, c.Param("id"), &resource); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.db.Model(&resource).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("resource_id", resource.ID).Msg("Failed to update resource")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update resource"})
			return
		}
	}

	c.JSON(http.StatusOK, resource)
}

// @Summary Delete resource
// @Description Removes the record and its stored file
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/resources/{id} [delete]
func (s *Server) deleteResource(c *gin.Context) {
	var resource models.Resource
	if err := models.FindByID(s.db, c.Param("id"), &resource); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&resource).Error; err != nil {
		s.logger.Error().Err(err).Str("resource_id", resource.ID).Msg("Failed to delete resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete resource"})
		return
	}

	// The file is gone for good once the row is deleted; a missing file
	// here just means an operator cleaned the directory manually.
	path := filepath.Join(s.config.Storage.Dir, resource.StoragePath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove resource file")
	}

	c.Status(http.StatusNoContent)
}

// @Summary List public resources
// @Description Public listing for the marketing site download section
// @Tags resources
// @Produce json
// @Success 200 {array} models.Resource
// @Router /api/resources [get]
func (s *Server) listPublicResources(c *gin.Context) {
	var resources []models.Resource
	if err := s.db.Order("created_at DESC").Find(&resources).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list resources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list resources"})
		return
	}

	c.JSON(http.StatusOK, resources)
}

// @Summary Download resource
// @Description Serves the stored file and counts the download
// @Tags resources
// @Produce octet-stream
// @Param id path string true "Resource ID"
// @Success 200
// @Failure 404 {object} map[string]interface{}
// @Router /api/resources/{id}/download [get]
func (s *Server) downloadResource(c *gin.Context) {
	var resource models.Resource
	if err := models.FindByID(s.db, c.Param("id"), &resource); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	path := filepath.Join(s.config.Storage.Dir, resource.StoragePath)
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.config.Storage.Dir)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Resource file missing")
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource file missing"})
		return
	}

	// Counted before serving; a broken connection mid-transfer still counts
	if err := s.db.Model(&resource).
		Update("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		s.logger.Warn().Err(err).Str("resource_id", resource.ID).Msg("Failed to count download")
	}

	c.FileAttachment(path, resource.FileName)
}
