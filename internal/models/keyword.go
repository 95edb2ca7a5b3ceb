package models

import (
	"time"

	"gorm.io/gorm"
)

// Keyword tracks search-rank history for one (client, keyword) pair.
// The pair is the natural key; rank checks upsert against it.
// A zero CurrentRank means the keyword has never been ranked.
type Keyword struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ClientID      uint       `gorm:"not null;uniqueIndex:idx_client_keyword" json:"client_id"`
	Keyword       string     `gorm:"not null;size:255;uniqueIndex:idx_client_keyword" json:"keyword"`
	CurrentRank   int        `gorm:"default:0" json:"current_rank"`
	PreviousRank  int        `gorm:"default:0" json:"previous_rank"`
	SearchVolume  int        `gorm:"default:0" json:"search_volume"`
	Difficulty    int        `gorm:"default:0" json:"difficulty"`
	LastCheckedAt *time.Time `json:"last_checked_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
