package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/models"
)

// CreatePostRequest creates a blog post
type CreatePostRequest struct {
	Title     string     `json:"title" binding:"required"`
	Slug      string     `json:"slug" binding:"required"`
	Excerpt   string     `json:"excerpt"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	PublishAt *time.Time `json:"publish_at"`
}

// UpdatePostRequest updates a blog post
type UpdatePostRequest struct {
	Title     *string    `json:"title"`
	Slug      *string    `json:"slug"`
	Excerpt   *string    `json:"excerpt"`
	Body      *string    `json:"body"`
	Status    *string    `json:"status"`
	PublishAt *time.Time `json:"publish_at"`
}

var postStatuses = map[string]bool{
	models.PostStatusDraft:     true,
	models.PostStatusScheduled: true,
	models.PostStatusPublished: true,
}

func (s *Server) validateSlug(slug string) bool {
	return s.validator.Var(slug, "slug") == nil
}

// publishedScope limits a query to posts visible on the public site.
// Scheduled posts go live at query time once publish_at has passed, so no
// background job is needed to flip them.
func publishedScope(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? OR (status = ? AND publish_at IS NOT NULL AND publish_at <= ?)",
		models.PostStatusPublished, models.PostStatusScheduled, time.Now().UTC())
}

// @Summary List posts
// @Description List all posts regardless of status
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /api/admin/posts [get]
func (s *Server) listPosts(c *gin.Context) {
	query := s.db.Model(&models.Post{}).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/posts [post]
func (s *Server) createPost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.validateSlug(req.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must be lowercase letters, digits and hyphens"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !postStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	if status == models.PostStatusScheduled && req.PublishAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scheduled posts need a publish_at time"})
		return
	}

	sessionData, _ := GetSessionData(c)

	post := &models.Post{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Status:    status,
		PublishAt: req.PublishAt,
		AuthorID:  sessionData.UserID,
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := s.db.Create(post).Error; err != nil {
		s.logger.Error().Err(err).Str("slug", req.Slug).Msg("Failed to create post")
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create post (slug may already exist)"})
		return
	}

	s.logger.Info().Str("post_id", post.ID).Str("slug", post.Slug).Msg("Post created")
	c.JSON(http.StatusCreated, post)
}

// @Summary Get post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/posts/{id} [get]
func (s *Server) getPost(c *gin.Context) {
	var post models.Post
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Update post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body UpdatePostRequest true "Updates"
// @Success 200 {object} models.Post
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/posts/{id} [patch]
func (s *Server) updatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Slug != nil {
		if !s.validateSlug(*req.Slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must be lowercase letters, digits and hyphens"})
			return
		}
		updates["slug"] = *req.Slug
	}
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.PublishAt != nil {
		updates["publish_at"] = req.PublishAt
	}
	if req.Status != nil {
		if !postStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = *req.Status
		if *req.Status == models.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now().UTC()
			updates["published_at"] = &now
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(&post).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to update post")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
			return
		}
	}

	c.JSON(http.StatusOK, post)
}

// @Summary Publish post
// @Description Move a post to published immediately
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/posts/{id}/publish [post]
func (s *Server) publishPost(c *gin.Context) {
	var post models.Post
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	now := time.Now().UTC()
	if err := s.db.Model(&post).Updates(map[string]interface{}{
		"status":       models.PostStatusPublished,
		"published_at": &now,
	}).Error; err != nil {
		s.logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to publish post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish post"})
		return
	}

	s.logger.Info().Str("post_id", post.ID).Str("slug", post.Slug).Msg("Post published")
	c.JSON(http.StatusOK, post)
}

// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/posts/{id} [delete]
func (s *Server) deletePost(c *gin.Context) {
	var post models.Post
	if err := models.FindByID(s.db, c.Param("id"), &post); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&post).Error; err != nil {
		s.logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to delete post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List published posts
// @Description Public listing for the marketing site
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /api/posts [get]
func (s *Server) listPublishedPosts(c *gin.Context) {
	var posts []models.Post
	if err := publishedScope(s.db.Model(&models.Post{})).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list published posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// @Summary Get published post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]interface{}
// @Router /api/posts/{slug} [get]
func (s *Server) getPublishedPost(c *gin.Context) {
	var post models.Post
	if err := publishedScope(s.db.Model(&models.Post{})).
		Where("slug = ?", c.Param("slug")).First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, post)
}
