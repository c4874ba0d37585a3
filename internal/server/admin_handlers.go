package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewithprachi/console/internal/auth"
	"github.com/hirewithprachi/console/internal/models"
)

// CreateUserRequest creates an additional console user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
	Role     string `json:"role"`
}

// CreateGrantRequest grants admin access to an existing user by email
type CreateGrantRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// UpdateGrantRequest activates or revokes an existing grant
type UpdateGrantRequest struct {
	IsActive *bool  `json:"is_active"`
	Role     string `json:"role"`
}

// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserDetail
// @Router /api/admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	details := make([]*UserDetail, 0, len(users))
	for i := range users {
		details = append(details, s.userDetail(&users[i]))
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Create user
// @Description Creates a console user, optionally with an admin grant
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} UserDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/admin/users [post]
func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		return
	} else if err != gorm.ErrRecordNotFound {
		s.logger.Error().Err(err).Msg("Failed to check for existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if req.IsAdmin {
			role := req.Role
			if role == "" {
				role = "admin"
			}
			grant := models.AdminGrant{
				UserID:   user.ID,
				Role:     role,
				IsActive: true,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Bool("is_admin", req.IsAdmin).Msg("User created")
	c.JSON(http.StatusCreated, s.userDetail(&user))
}

// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	session, ok := GetSessionData(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	userID := c.Param("id")
	if userID == session.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AdminGrant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User deleted")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary List admin grants
// @Tags grants
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AdminGrant
// @Router /api/admin/grants [get]
func (s *Server) listGrants(c *gin.Context) {
	var grants []models.AdminGrant
	if err := s.db.Preload("User").Order("created_at ASC").Find(&grants).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list grants")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list grants"})
		return
	}

	c.JSON(http.StatusOK, grants)
}

// @Summary Grant admin access
// @Description Grants admin access to an existing user. Re-activates a
// @Description previously revoked grant if one exists.
// @Tags grants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.AdminGrant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/grants [post]
func (s *Server) createGrant(c *gin.Context) {
	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No user with this email"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	role := req.Role
	if role == "" {
		role = "admin"
	}

	// One grant per user: reactivate an existing row rather than inserting a duplicate.
	var grant models.AdminGrant
	err := s.db.Where("user_id = ?", user.ID).First(&grant).Error
	switch {
	case err == nil:
		if err := s.db.Model(&grant).Updates(map[string]interface{}{
			"is_active": true,
			"role":      role,
		}).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to reactivate grant")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant admin access"})
			return
		}
	case err == gorm.ErrRecordNotFound:
		grant = models.AdminGrant{
			UserID:   user.ID,
			Role:     role,
			IsActive: true,
		}
		if err := s.db.Create(&grant).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create grant")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant admin access"})
			return
		}
	default:
		s.logger.Error().Err(err).Msg("Failed to look up grant")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	grant.User = &user
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", role).Msg("Admin access granted")
	c.JSON(http.StatusCreated, grant)
}

// @Summary Update admin grant
// @Description Changes a grant's role or revokes it. Revoking takes effect on
// @Description the holder's next request; there is no grace period.
// @Tags grants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grant ID"
// @Success 200 {object} models.AdminGrant
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/grants/{id} [patch]
func (s *Server) updateGrant(c *gin.Context) {
	session, ok := GetSessionData(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req UpdateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var grant models.AdminGrant
	if err := models.FindByID(s.db, c.Param("id"), &grant); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Grant not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find grant")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.IsActive != nil && !*req.IsActive && grant.UserID == session.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot revoke your own admin access"})
		return
	}

	updates := map[string]interface{}{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := s.db.Model(&grant).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Str("grant_id", grant.ID).Msg("Failed to update grant")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update grant"})
		return
	}

	s.logger.Info().Str("grant_id", grant.ID).Str("user_id", grant.UserID).Interface("updates", updates).Msg("Grant updated")
	c.JSON(http.StatusOK, grant)
}
