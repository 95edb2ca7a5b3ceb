package models

import (
	"time"

	"gorm.io/gorm"
)

// BlogPost holds a generated SEO article. It lives independently of the
// automation that produced it so the re-optimization sweep can find and
// rewrite it later.
type BlogPost struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ClientID        uint   `gorm:"not null;index" json:"client_id"`
	Title           string `gorm:"not null;size:500" json:"title"`
	MetaDescription string `gorm:"size:500" json:"meta_description"`
	Content         string `gorm:"type:text" json:"content"`
	SchemaJSON      string `gorm:"type:text" json:"schema_json"`
	Service         string `gorm:"size:255" json:"service"`
	Location        string `gorm:"size:255" json:"location"`

	WordpressPostID string     `gorm:"size:255" json:"wordpress_post_id"`
	WordpressURL    string     `gorm:"size:500" json:"wordpress_url"`
	PublishedAt     *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
