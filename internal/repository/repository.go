package repository

import (
	"context"
	"errors"
	"time"

	"github.com/seoforge/seoforge/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// AutomationResult carries the payload of an automation's terminal
// update: the serialized generated content and whichever publish
// references succeeded.
type AutomationResult struct {
	GeneratedContent string
	WordpressPostID  string
	WordpressPostURL string
	GBPPostID        string
}

// KeywordUpsert is the field set written by a keyword rank upsert.
// PreviousRank is only assigned when non-nil so that syncs which do not
// observe a rank change leave the stored previous rank untouched.
type KeywordUpsert struct {
	CurrentRank   int
	PreviousRank  *int
	SearchVolume  int
	Difficulty    int
	LastCheckedAt time.Time
}

// AnalyticsUpsert is the field set written by a daily analytics upsert.
type AnalyticsUpsert struct {
	Sessions           int
	Users              int
	PageViews          int
	BounceRate         float64
	AvgSessionDuration float64
	Conversions        int
}

// Store is the durable-state collaborator of the automation engine and
// scheduler. Upserts are atomic per natural key.
type Store interface {
	GetClient(ctx context.Context, id uint) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)

	CreateAutomation(ctx context.Context, automation *models.Automation) error
	// UpdateAutomationStatus applies the terminal update for an
	// automation. It only touches rows still in processing, so the
	// processing -> terminal transition cannot be reversed.
	UpdateAutomationStatus(ctx context.Context, id uint, status string, result *AutomationResult) error
	// ListAutomations returns automations newest first; limit <= 0
	// returns all of them.
	ListAutomations(ctx context.Context, clientID uint, limit int) ([]models.Automation, error)

	CreateBlogPost(ctx context.Context, post *models.BlogPost) error
	UpdateBlogPost(ctx context.Context, post *models.BlogPost) error
	MarkBlogPostPublished(ctx context.Context, id uint, postID, url string, publishedAt time.Time) error
	// FindRecentBlogPosts returns posts newest first whose title or
	// content contains the given text; empty text matches everything.
	FindRecentBlogPosts(ctx context.Context, clientID uint, contains string, limit int) ([]models.BlogPost, error)

	UpsertKeyword(ctx context.Context, clientID uint, keyword string, fields KeywordUpsert) error
	ListKeywords(ctx context.Context, clientID uint) ([]models.Keyword, error)

	UpsertAnalytics(ctx context.Context, clientID uint, date time.Time, fields AnalyticsUpsert) error
	ListAnalytics(ctx context.Context, clientID uint, days int) ([]models.Analytics, error)

	UpsertReport(ctx context.Context, clientID uint, period string, payload string, generatedAt time.Time) error
}
