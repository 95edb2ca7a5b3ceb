package models

import (
	"time"

	"gorm.io/gorm"
)

// Automation statuses. A record is created in processing and moves
// exactly once to completed or failed, never back.
const (
	AutomationProcessing = "processing"
	AutomationCompleted  = "completed"
	AutomationFailed     = "failed"
)

// Upload types accepted by the automation engine.
const (
	UploadPhoto        = "photo"
	UploadTestimonial  = "testimonial"
	UploadProjectNotes = "project_notes"
)

// Automation is one workflow run triggered by a single content upload.
type Automation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	ClientID    uint   `gorm:"not null;index" json:"client_id"`
	Title       string `gorm:"not null;size:500" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	UploadType  string `gorm:"not null;size:50" json:"upload_type"`
	Service     string `gorm:"size:255" json:"service"`
	Location    string `gorm:"size:255" json:"location"`
	Status      string `gorm:"size:50;default:'processing'" json:"status"`

	// Serialized generated-content bundle plus whichever publish
	// references succeeded, filled in by the terminal update.
	GeneratedContent string `gorm:"type:text" json:"generated_content"`
	WordpressPostID  string `gorm:"size:255" json:"wordpress_post_id"`
	WordpressPostURL string `gorm:"size:500" json:"wordpress_post_url"`
	GBPPostID        string `gorm:"size:500" json:"gbp_post_id"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
