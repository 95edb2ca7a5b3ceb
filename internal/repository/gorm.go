package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/models"
)

func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schema
	if err := db.AutoMigrate(
		&models.Client{},
		&models.Automation{},
		&models.BlogPost{},
		&models.Keyword{},
		&models.Analytics{},
		&models.Report{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// GormStore implements Store on top of a gorm database handle.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (s *GormStore) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *GormStore) CreateAutomation(ctx context.Context, automation *models.Automation) error {
	if err := s.db.WithContext(ctx).Create(automation).Error; err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateAutomationStatus(ctx context.Context, id uint, status string, result *AutomationResult) error {
	updates := map[string]any{"status": status}
	if result != nil {
		updates["generated_content"] = result.GeneratedContent
		updates["wordpress_post_id"] = result.WordpressPostID
		updates["wordpress_post_url"] = result.WordpressPostURL
		updates["gbp_post_id"] = result.GBPPostID
	}

	// Only rows still in processing may receive a terminal status.
	res := s.db.WithContext(ctx).Model(&models.Automation{}).
		Where("id = ? AND status = ?", id, models.AutomationProcessing).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update automation status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListAutomations(ctx context.Context, clientID uint, limit int) ([]models.Automation, error) {
	var automations []models.Automation
	q := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&automations).Error; err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	return automations, nil
}

func (s *GormStore) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateBlogPost(ctx context.Context, post *models.BlogPost) error {
	if err := s.db.WithContext(ctx).Save(post).Error; err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	return nil
}

func (s *GormStore) MarkBlogPostPublished(ctx context.Context, id uint, postID, url string, publishedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"wordpress_post_id": postID,
			"wordpress_url":     url,
			"published_at":      publishedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark blog post published: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindRecentBlogPosts(ctx context.Context, clientID uint, contains string, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	q := s.db.WithContext(ctx).Where("client_id = ?", clientID)
	if contains != "" {
		pattern := "%" + contains + "%"
		q = q.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}
	q = q.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to find blog posts: %w", err)
	}
	return posts, nil
}

func (s *GormStore) UpsertKeyword(ctx context.Context, clientID uint, keyword string, fields KeywordUpsert) error {
	assignments := map[string]any{
		"current_rank":    fields.CurrentRank,
		"search_volume":   fields.SearchVolume,
		"difficulty":      fields.Difficulty,
		"last_checked_at": fields.LastCheckedAt,
	}
	if fields.PreviousRank != nil {
		assignments["previous_rank"] = *fields.PreviousRank
	}

	row := models.Keyword{
		ClientID:      clientID,
		Keyword:       keyword,
		CurrentRank:   fields.CurrentRank,
		SearchVolume:  fields.SearchVolume,
		Difficulty:    fields.Difficulty,
		LastCheckedAt: &fields.LastCheckedAt,
	}
	if fields.PreviousRank != nil {
		row.PreviousRank = *fields.PreviousRank
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "keyword"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert keyword: %w", err)
	}
	return nil
}

func (s *GormStore) ListKeywords(ctx context.Context, clientID uint) ([]models.Keyword, error) {
	var keywords []models.Keyword
	if err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("current_rank ASC").
		Find(&keywords).Error; err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}

func (s *GormStore) UpsertAnalytics(ctx context.Context, clientID uint, date time.Time, fields AnalyticsUpsert) error {
	row := models.Analytics{
		ClientID:           clientID,
		Date:               date,
		Sessions:           fields.Sessions,
		Users:              fields.Users,
		PageViews:          fields.PageViews,
		BounceRate:         fields.BounceRate,
		AvgSessionDuration: fields.AvgSessionDuration,
		Conversions:        fields.Conversions,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"sessions":             fields.Sessions,
			"users":                fields.Users,
			"page_views":           fields.PageViews,
			"bounce_rate":          fields.BounceRate,
			"avg_session_duration": fields.AvgSessionDuration,
			"conversions":          fields.Conversions,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert analytics: %w", err)
	}
	return nil
}

func (s *GormStore) ListAnalytics(ctx context.Context, clientID uint, days int) ([]models.Analytics, error) {
	var rows []models.Analytics
	q := s.db.WithContext(ctx).Where("client_id = ?", clientID)
	if days > 0 {
		q = q.Where("date >= ?", time.Now().AddDate(0, 0, -days))
	}
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return rows, nil
}

func (s *GormStore) UpsertReport(ctx context.Context, clientID uint, period string, payload string, generatedAt time.Time) error {
	row := models.Report{
		ClientID:    clientID,
		Period:      period,
		Payload:     payload,
		GeneratedAt: generatedAt,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payload":      payload,
			"generated_at": generatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	return nil
}
