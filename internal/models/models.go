package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the single-tenant deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	// Authentication configuration
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first setup (64 hex chars)

	// Site identity shown in the admin console and outbound email
	SiteName    string `json:"site_name" gorm:"not null;default:'HireWithPrachi'"`
	NotifyEmail string `json:"notify_email"` // Where new-lead notifications are sent, empty = disabled

	// Email log retention
	RetentionSchedule     string     `json:"retention_schedule"` // Cron expression, e.g. "0 3 * * *" (3am daily), empty = no sweeps
	EmailLogRetentionDays int        `json:"email_log_retention_days" gorm:"not null;default:90"`
	LastSweepAt           *time.Time `json:"last_sweep_at"` // When the last retention sweep completed
	NextSweepAt           *time.Time `json:"next_sweep_at"` // Calculated from cron schedule
}

// User represents a local account (self-hosted, no external auth)
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Password reset (hash of an outstanding one-time token, empty = none)
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
}

// AdminGrant links a user to an administrative role.
// Admin access requires an active grant; authentication alone is not enough.
type AdminGrant struct {
	BaseModel
	UserID      string     `json:"user_id" gorm:"unique;not null"`
	Role        string     `json:"role" gorm:"not null;default:'admin'"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// Lead statuses
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusClosed    = "closed"
)

// Lead represents an inbound contact from the marketing site
type Lead struct {
	BaseModel
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Source    string    `json:"source"` // Which form/page produced the lead
	Message   string    `json:"message" gorm:"type:text"`
	Status    string    `json:"status" gorm:"not null;default:'new'"`
	Notes     string    `json:"notes" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// Post represents a blog post
type Post struct {
	BaseModel
	Title       string     `json:"title" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"unique;not null"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	Body        string     `json:"body" gorm:"type:text"`
	Status      string     `json:"status" gorm:"not null;default:'draft'"`
	PublishAt   *time.Time `json:"publish_at"`   // For scheduled posts
	PublishedAt *time.Time `json:"published_at"` // Set when the post goes live
	AuthorID    string     `json:"author_id"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:SET NULL"`
}

// Video represents an embedded video shown on the site
type Video struct {
	BaseModel
	Title       string    `json:"title" gorm:"not null"`
	URL         string    `json:"url" gorm:"not null"`
	Provider    string    `json:"provider"` // youtube, vimeo, ...
	Description string    `json:"description" gorm:"type:text"`
	Position    int       `json:"position" gorm:"not null;default:0"` // Sort order on the site
	IsPublished bool      `json:"is_published" gorm:"not null;default:false"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Resource represents a downloadable file (template, checklist, guide)
type Resource struct {
	BaseModel
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	FileName      string    `json:"file_name" gorm:"not null"` // Original upload name
	StoragePath   string    `json:"-" gorm:"not null"`         // Relative path inside the storage dir
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	DownloadCount int64     `json:"download_count" gorm:"not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Email log statuses
const (
	EmailStatusQueued = "queued"
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records every outbound email attempt.
// Rows are created in queued state and moved to sent/failed by the worker.
type EmailLog struct {
	BaseModel
	ToEmail   string     `json:"to_email" gorm:"not null"`
	Subject   string     `json:"subject" gorm:"not null"`
	Body      string     `json:"body" gorm:"type:text"`
	Kind      string     `json:"kind"` // lead_notification, password_reset, ...
	Status    string     `json:"status" gorm:"not null;default:'queued'"`
	Error     string     `json:"error"`
	SentAt    *time.Time `json:"sent_at"`
	LeadID    string     `json:"lead_id"` // Optional link back to the lead that caused it
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &AdminGrant{}, &Config{}, &Lead{}, &Post{}, &Video{}, &Resource{}, &EmailLog{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindActiveAdminByUserID returns the active admin grant for a user, or
// gorm.ErrRecordNotFound when the user holds no active grant.
func FindActiveAdminByUserID(db *gorm.DB, userID string) (*AdminGrant, error) {
	var grant AdminGrant
	if err := db.Where("user_id = ? AND is_active = ?", userID, true).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}
