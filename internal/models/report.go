package models

import (
	"time"

	"gorm.io/gorm"
)

// Report is a delivered monthly report, one per (client, period) where
// period is formatted YYYY-MM. The payload is the serialized report data.
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClientID    uint      `gorm:"not null;uniqueIndex:idx_client_period" json:"client_id"`
	Period      string    `gorm:"not null;size:7;uniqueIndex:idx_client_period" json:"period"`
	Payload     string    `gorm:"type:text" json:"payload"`
	GeneratedAt time.Time `json:"generated_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
