package models

import (
	"time"

	"gorm.io/gorm"
)

// Analytics is one day of traffic and engagement numbers for a client.
// The (client, date) pair is the natural key for the daily sync upsert.
type Analytics struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ClientID           uint      `gorm:"not null;uniqueIndex:idx_client_date" json:"client_id"`
	Date               time.Time `gorm:"not null;uniqueIndex:idx_client_date" json:"date"`
	Sessions           int       `gorm:"default:0" json:"sessions"`
	Users              int       `gorm:"default:0" json:"users"`
	PageViews          int       `gorm:"default:0" json:"page_views"`
	BounceRate         float64   `gorm:"default:0" json:"bounce_rate"`
	AvgSessionDuration float64   `gorm:"default:0" json:"avg_session_duration"`
	Conversions        int       `gorm:"default:0" json:"conversions"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
