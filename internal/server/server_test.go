package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirewithprachi/console/internal/auth"
	"github.com/hirewithprachi/console/internal/config"
	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/sysinfo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "test.sqlite")},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
		Storage:  config.StorageConfig{Dir: t.TempDir()},
	}

	s, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.asynqClient.Close() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// setupFirstAdmin runs the first-run setup and returns the owner's token and user ID.
func setupOwner(t *testing.T, s *Server) (token, userID string) {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/setup", "", gin.H{
		"email":    "owner@example.com",
		"password": "ownerpass123",
		"name":     "Owner",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	require.True(t, resp.User.IsAdmin)
	return resp.Token, resp.User.ID
}

// createUserAs creates a user through the admin API and logs them in.
func createUserAs(t *testing.T, s *Server, adminToken, email, password string, isAdmin bool) (token, userID string) {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/admin/users", adminToken, gin.H{
		"email":    email,
		"password": password,
		"name":     "Test User",
		"is_admin": isAdmin,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decode(t, w, &resp)
	return resp.Token, resp.User.ID
}

func TestSetupAndLogin(t *testing.T) {
	s := newTestServer(t)

	// Unauthenticated requests are rejected before setup
	w := doJSON(t, s, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, userID := setupOwner(t, s)

	// Setup is one-shot
	w = doJSON(t, s, http.MethodPost, "/api/setup", "", gin.H{
		"email":    "second@example.com",
		"password": "password123",
		"name":     "Second",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Wrong password
	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "owner@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown account gets the same response as a bad password
	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token reaches /me
	w = doJSON(t, s, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		User      *UserDetail `json:"user"`
		ExpiresAt time.Time   `json:"expires_at"`
	}
	decode(t, w, &me)
	assert.Equal(t, userID, me.User.ID)
	assert.True(t, me.User.IsAdmin)
	assert.True(t, me.ExpiresAt.After(time.Now()))

	// Garbage token
	w = doJSON(t, s, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminGrantLookup(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := setupOwner(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/auth/admin", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AdminGrantResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Admin)
	assert.Equal(t, ownerID, resp.Admin.UserID)
	assert.Equal(t, "owner", resp.Admin.Role)

	// A plain user is authenticated but not an admin: the lookup succeeds
	// and reports null rather than failing
	userToken, _ := createUserAs(t, s, ownerToken, "viewer@example.com", "viewerpass1", false)

	w = doJSON(t, s, http.MethodGet, "/api/auth/admin", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Nil(t, resp.Admin)

	// The admin area is closed to them
	w = doJSON(t, s, http.MethodGet, "/api/admin/leads", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required")
}

func TestAdminRevocationTakesEffectNextRequest(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)
	adminToken, adminID := createUserAs(t, s, ownerToken, "admin2@example.com", "adminpass123", true)

	// Second admin can use the console
	w := doJSON(t, s, http.MethodGet, "/api/admin/leads", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Find their grant and revoke it
	w = doJSON(t, s, http.MethodGet, "/api/admin/grants", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var grants []models.AdminGrant
	decode(t, w, &grants)

	var grantID string
	for _, g := range grants {
		if g.UserID == adminID {
			grantID = g.ID
		}
	}
	require.NotEmpty(t, grantID)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/grants/"+grantID, ownerToken, gin.H{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Same still-valid token, next request: gate closed
	w = doJSON(t, s, http.MethodGet, "/api/admin/leads", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The lookup endpoint now reports no grant
	w = doJSON(t, s, http.MethodGet, "/api/auth/admin", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp AdminGrantResponse
	decode(t, w, &resp)
	assert.Nil(t, resp.Admin)

	// Re-granting by email reactivates the same row
	w = doJSON(t, s, http.MethodPost, "/api/admin/grants", ownerToken, gin.H{
		"email": "admin2@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/api/admin/leads", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGrantSelfRevokeRejected(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := setupOwner(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/admin/grants", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var grants []models.AdminGrant
	decode(t, w, &grants)
	require.Len(t, grants, 1)
	require.Equal(t, ownerID, grants[0].UserID)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/grants/"+grants[0].ID, ownerToken, gin.H{
		"is_active": false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "your own admin access")

	// Role changes on your own grant are fine
	w = doJSON(t, s, http.MethodPatch, "/api/admin/grants/"+grants[0].ID, ownerToken, gin.H{
		"role": "admin",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserManagement(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := setupOwner(t, s)

	// Duplicate email
	w := doJSON(t, s, http.MethodPost, "/api/admin/users", ownerToken, gin.H{
		"email":    "owner@example.com",
		"password": "password123",
		"name":     "Dup",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	_, userID := createUserAs(t, s, ownerToken, "temp@example.com", "temppass123", false)

	w = doJSON(t, s, http.MethodGet, "/api/admin/users", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []UserDetail
	decode(t, w, &users)
	assert.Len(t, users, 2)

	// Cannot delete yourself
	w = doJSON(t, s, http.MethodDelete, "/api/admin/users/"+ownerID, ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/admin/users/"+userID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Granting to an unknown email
	w = doJSON(t, s, http.MethodPost, "/api/admin/grants", ownerToken, gin.H{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadLifecycle(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	// Public submission, no auth
	w := doJSON(t, s, http.MethodPost, "/api/leads", "", gin.H{
		"name":    "Jane Prospect",
		"email":   "jane@example.com",
		"company": "Acme",
		"source":  "contact-form",
		"message": "Looking for HR templates",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var lead models.Lead
	decode(t, w, &lead)
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	// Invalid email rejected
	w = doJSON(t, s, http.MethodPost, "/api/leads", "", gin.H{
		"name":  "Bad",
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Triage it
	w = doJSON(t, s, http.MethodPatch, "/api/admin/leads/"+lead.ID, ownerToken, gin.H{
		"status": "contacted",
		"notes":  "Called on Monday",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/leads/"+lead.ID, ownerToken, gin.H{
		"status": "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Filtered listing
	w = doJSON(t, s, http.MethodGet, "/api/admin/leads?status=contacted", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var leads []models.Lead
	decode(t, w, &leads)
	require.Len(t, leads, 1)
	assert.Equal(t, "Called on Monday", leads[0].Notes)

	w = doJSON(t, s, http.MethodGet, "/api/admin/leads?status=closed", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &leads)
	assert.Empty(t, leads)

	// Search
	w = doJSON(t, s, http.MethodGet, "/api/admin/leads?q=Acme", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &leads)
	assert.Len(t, leads, 1)

	w = doJSON(t, s, http.MethodDelete, "/api/admin/leads/"+lead.ID, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/admin/leads/"+lead.ID, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadExportCSV(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	for i := 0; i < 3; i++ {
		w := doJSON(t, s, http.MethodPost, "/api/leads", "", gin.H{
			"name":  fmt.Sprintf("Lead %d", i),
			"email": fmt.Sprintf("lead%d@example.com", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, s, http.MethodGet, "/api/admin/leads/export", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads_")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "id,created_at,name,email"))
	assert.Contains(t, w.Body.String(), "lead2@example.com")
}

func TestLeadNotificationQueued(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := doJSON(t, s, http.MethodPatch, "/api/admin/config", ownerToken, gin.H{
		"notify_email": "alerts@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/api/leads", "", gin.H{
		"name":  "Notify Me",
		"email": "notify@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var entries []models.EmailLog
	require.NoError(t, s.db.Where("kind = ?", "lead_notification").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "alerts@example.com", entries[0].ToEmail)
	assert.Equal(t, models.EmailStatusQueued, entries[0].Status)
	assert.NotEmpty(t, entries[0].LeadID)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	setupOwner(t, s)

	// Unknown account gets the same answer as a known one
	w := doJSON(t, s, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"email": "owner@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The request queued a reset email and stored a token hash
	var entries []models.EmailLog
	require.NoError(t, s.db.Where("kind = ?", "password_reset").Find(&entries).Error)
	require.Len(t, entries, 1)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "owner@example.com").First(&user).Error)
	require.NotEmpty(t, user.ResetTokenHash)
	require.NotNil(t, user.ResetTokenExpiresAt)

	// Complete the reset with a token we control
	expires := time.Now().Add(30 * time.Minute)
	require.NoError(t, s.db.Model(&user).Updates(map[string]interface{}{
		"reset_token_hash":       auth.HashResetToken("known-test-token"),
		"reset_token_expires_at": &expires,
	}).Error)

	w = doJSON(t, s, http.MethodPost, "/api/auth/reset-password/confirm", "", gin.H{
		"token":        "wrong-token",
		"new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/reset-password/confirm", "", gin.H{
		"token":        "known-test-token",
		"new_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password no longer works, new one does
	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "owner@example.com",
		"password": "ownerpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "owner@example.com",
		"password": "newpassword1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Token is one-time
	w = doJSON(t, s, http.MethodPost, "/api/auth/reset-password/confirm", "", gin.H{
		"token":        "known-test-token",
		"new_password": "anotherpass1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	s := newTestServer(t)
	setupOwner(t, s)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "owner@example.com").First(&user).Error)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, s.db.Model(&user).Updates(map[string]interface{}{
		"reset_token_hash":       auth.HashResetToken("stale-token"),
		"reset_token_expires_at": &expired,
	}).Error)

	w := doJSON(t, s, http.MethodPost, "/api/auth/reset-password/confirm", "", gin.H{
		"token":        "stale-token",
		"new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired")
}

func TestPostPublishing(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	create := func(body gin.H) models.Post {
		w := doJSON(t, s, http.MethodPost, "/api/admin/posts", ownerToken, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var post models.Post
		decode(t, w, &post)
		return post
	}

	draft := create(gin.H{"title": "Draft", "slug": "draft-post"})
	published := create(gin.H{"title": "Live", "slug": "live-post", "status": "published"})
	create(gin.H{"title": "Due", "slug": "due-post", "status": "scheduled", "publish_at": past})
	create(gin.H{"title": "Later", "slug": "later-post", "status": "scheduled", "publish_at": future})

	assert.Equal(t, models.PostStatusDraft, draft.Status)
	require.NotNil(t, published.PublishedAt)

	// Bad slug and missing publish_at are rejected
	w := doJSON(t, s, http.MethodPost, "/api/admin/posts", ownerToken, gin.H{
		"title": "Bad", "slug": "Not A Slug",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/admin/posts", ownerToken, gin.H{
		"title": "Bad", "slug": "no-time", "status": "scheduled",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicate slug
	w = doJSON(t, s, http.MethodPost, "/api/admin/posts", ownerToken, gin.H{
		"title": "Dup", "slug": "live-post",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Public listing: published plus past-due scheduled, nothing else
	w = doJSON(t, s, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visible []models.Post
	decode(t, w, &visible)
	require.Len(t, visible, 2)
	slugs := []string{visible[0].Slug, visible[1].Slug}
	assert.Contains(t, slugs, "live-post")
	assert.Contains(t, slugs, "due-post")

	// Drafts are invisible by slug too
	w = doJSON(t, s, http.MethodGet, "/api/posts/draft-post", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/posts/due-post", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Publish the draft explicitly
	w = doJSON(t, s, http.MethodPost, "/api/admin/posts/"+draft.ID+"/publish", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/posts/draft-post", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Admin listing sees everything
	w = doJSON(t, s, http.MethodGet, "/api/admin/posts", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Post
	decode(t, w, &all)
	assert.Len(t, all, 4)
}

func TestVideoManagement(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/admin/videos", ownerToken, gin.H{
		"title":    "Resume tips",
		"url":      "https://www.youtube.com/watch?v=abc123",
		"provider": "youtube",
		"position": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var video models.Video
	decode(t, w, &video)
	assert.False(t, video.IsPublished)

	// Unpublished videos are hidden from the public list
	w = doJSON(t, s, http.MethodGet, "/api/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var public []models.Video
	decode(t, w, &public)
	assert.Empty(t, public)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/videos/"+video.ID, ownerToken, gin.H{
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &public)
	require.Len(t, public, 1)
	assert.Equal(t, "Resume tips", public[0].Title)
}

func uploadFile(t *testing.T, s *Server, token, title, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/resources", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestResourceUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := uploadFile(t, s, ownerToken, "Interview checklist", "checklist.pdf", "fake pdf bytes")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resource models.Resource
	decode(t, w, &resource)
	assert.Equal(t, "checklist.pdf", resource.FileName)
	assert.Equal(t, int64(len("fake pdf bytes")), resource.SizeBytes)
	assert.Zero(t, resource.DownloadCount)

	// Missing title
	w = uploadFile(t, s, ownerToken, "", "x.pdf", "data")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Public download, twice
	for i := 0; i < 2; i++ {
		w = doJSON(t, s, http.MethodGet, "/api/resources/"+resource.ID+"/download", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fake pdf bytes", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "checklist.pdf")
	}

	var reloaded models.Resource
	require.NoError(t, models.FindByID(s.db, resource.ID, &reloaded))
	assert.Equal(t, int64(2), reloaded.DownloadCount)

	// Delete removes the row and the file
	w = doJSON(t, s, http.MethodDelete, "/api/admin/resources/"+resource.ID, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/resources/"+resource.ID+"/download", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigUpdate(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/admin/config", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg models.Config
	decode(t, w, &cfg)
	assert.Equal(t, "HireWithPrachi", cfg.SiteName)
	assert.Equal(t, 90, cfg.EmailLogRetentionDays)
	assert.Nil(t, cfg.NextSweepAt)

	// Invalid cron expression
	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", ownerToken, gin.H{
		"retention_schedule": "not a cron",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Invalid retention window
	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", ownerToken, gin.H{
		"email_log_retention_days": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Valid update schedules the next sweep
	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", ownerToken, gin.H{
		"site_name":                "HWP Console",
		"retention_schedule":       "0 3 * * *",
		"email_log_retention_days": 30,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cfg)
	assert.Equal(t, "HWP Console", cfg.SiteName)
	assert.Equal(t, 30, cfg.EmailLogRetentionDays)
	require.NotNil(t, cfg.NextSweepAt)
	assert.True(t, cfg.NextSweepAt.After(time.Now()))

	// Clearing the schedule clears the next sweep
	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", ownerToken, gin.H{
		"retention_schedule": "",
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cfg)
	assert.Nil(t, cfg.NextSweepAt)
}

func TestEmailLogRetry(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	failed := &models.EmailLog{
		ToEmail: "someone@example.com",
		Subject: "Hello",
		Status:  models.EmailStatusFailed,
		Error:   "relay refused",
	}
	require.NoError(t, s.db.Create(failed).Error)

	sentAt := time.Now()
	sent := &models.EmailLog{
		ToEmail: "other@example.com",
		Subject: "Done",
		Status:  models.EmailStatusSent,
		SentAt:  &sentAt,
	}
	require.NoError(t, s.db.Create(sent).Error)

	w := doJSON(t, s, http.MethodGet, "/api/admin/email-logs?status=failed", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.EmailLog
	decode(t, w, &logs)
	require.Len(t, logs, 1)

	w = doJSON(t, s, http.MethodPost, "/api/admin/email-logs/"+failed.ID+"/retry", ownerToken, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var reloaded models.EmailLog
	require.NoError(t, models.FindByID(s.db, failed.ID, &reloaded))
	assert.Equal(t, models.EmailStatusQueued, reloaded.Status)
	assert.Empty(t, reloaded.Error)

	// Sent emails cannot be retried
	w = doJSON(t, s, http.MethodPost, "/api/admin/email-logs/"+sent.ID+"/retry", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/leads", "", gin.H{
		"name":  "Counted",
		"email": "counted@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/admin/stats", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Leads.Total)
	assert.Equal(t, int64(1), stats.Leads.New)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Admins)
	assert.Equal(t, "test", stats.Version)
}

func TestSystemMetrics(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host metrics require /proc and df")
	}

	s := newTestServer(t)
	ownerToken, _ := setupOwner(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/admin/system", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var metrics sysinfo.Metrics
	decode(t, w, &metrics)
	assert.Greater(t, metrics.CPUCount, 0)
	assert.Greater(t, metrics.MemoryTotalGB, 0.0)
	assert.Greater(t, metrics.DiskTotalGB, 0.0)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "online")
}
