package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is one managed website. Integration credentials are optional;
// an empty credential means that integration is disabled for the client.
// Clients are created and edited by the management UI, the automation
// core only reads them.
type Client struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	Name    string `gorm:"not null;size:255" json:"name"`
	Website string `gorm:"not null;size:500" json:"website"`

	WordpressEnabled bool   `gorm:"default:false" json:"wordpress_enabled"`
	WordpressURL     string `gorm:"size:500" json:"wordpress_url"`
	WordpressAPIKey  string `gorm:"size:500" json:"-"`

	GBPEnabled     bool   `gorm:"default:false" json:"gbp_enabled"`
	GBPBusinessID  string `gorm:"size:255" json:"gbp_business_id"`
	GBPAccessToken string `gorm:"size:500" json:"-"`

	SEMrushEnabled bool   `gorm:"default:false" json:"semrush_enabled"`
	SEMrushAPIKey  string `gorm:"size:500" json:"-"`

	GA4Enabled     bool   `gorm:"default:false" json:"ga4_enabled"`
	GA4PropertyID  string `gorm:"size:255" json:"ga4_property_id"`
	GA4AccessToken string `gorm:"size:500" json:"-"`

	ReoptimizationEnabled bool `gorm:"default:false" json:"reoptimization_enabled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// WordpressConfigured reports whether the CMS integration can be used.
func (c *Client) WordpressConfigured() bool {
	return c.WordpressEnabled && c.WordpressURL != "" && c.WordpressAPIKey != ""
}

// GBPConfigured reports whether the local-listing integration can be used.
func (c *Client) GBPConfigured() bool {
	return c.GBPEnabled && c.GBPBusinessID != "" && c.GBPAccessToken != ""
}

// SEMrushConfigured reports whether the ranking integration can be used.
func (c *Client) SEMrushConfigured() bool {
	return c.SEMrushEnabled && c.SEMrushAPIKey != ""
}

// GA4Configured reports whether the analytics integration can be used.
func (c *Client) GA4Configured() bool {
	return c.GA4Enabled && c.GA4PropertyID != "" && c.GA4AccessToken != ""
}
