package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/repository"
)

// SyncAnalytics pulls the trailing window of daily traffic metrics and
// the domain's organic keywords into the store. Each provider is
// independent; a failure on one side is logged and the other still
// runs. Disabled integrations are skipped silently.
func (e *AutomationEngine) SyncAnalytics(ctx context.Context, clientID uint) error {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}

	if client.GA4Configured() {
		e.syncDailyMetrics(ctx, client.ID, client.GA4PropertyID, client.GA4AccessToken)
	}

	if client.SEMrushConfigured() {
		e.syncDomainKeywords(ctx, client.ID, client.SEMrushAPIKey, client.Website)
	}

	return nil
}

func (e *AutomationEngine) syncDailyMetrics(ctx context.Context, clientID uint, propertyID, accessToken string) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	rows, err := e.metrics.FetchDailyMetrics(callCtx, propertyID, accessToken, reportWindowDays)
	cancel()
	if err != nil {
		e.logger.Error("Failed to fetch analytics data",
			zap.Uint("client_id", clientID),
			zap.Error(err))
		return
	}

	for _, row := range rows {
		date := row.Date.Truncate(24 * time.Hour)
		err := e.store.UpsertAnalytics(ctx, clientID, date, repository.AnalyticsUpsert{
			Sessions:           row.Sessions,
			Users:              row.Users,
			PageViews:          row.PageViews,
			BounceRate:         row.BounceRate,
			AvgSessionDuration: row.AvgSessionDuration,
			Conversions:        row.Conversions,
		})
		if err != nil {
			e.logger.Error("Failed to store analytics row",
				zap.Uint("client_id", clientID),
				zap.Time("date", date),
				zap.Error(err))
		}
	}

	e.logger.Info("Analytics synced",
		zap.Uint("client_id", clientID),
		zap.Int("days", len(rows)))
}

// syncDomainKeywords refreshes the tracked keyword set from the
// domain's organic rankings. PreviousRank is left alone here; only the
// re-optimization sweep rotates it, right before it overwrites the
// current rank.
func (e *AutomationEngine) syncDomainKeywords(ctx context.Context, clientID uint, apiKey, website string) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	rows, err := e.rankings.FetchDomainKeywords(callCtx, apiKey, website)
	cancel()
	if err != nil {
		e.logger.Error("Failed to fetch domain keywords",
			zap.Uint("client_id", clientID),
			zap.Error(err))
		return
	}

	now := e.nowFunc()
	for _, row := range rows {
		err := e.store.UpsertKeyword(ctx, clientID, row.Keyword, repository.KeywordUpsert{
			CurrentRank:   row.CurrentRank,
			SearchVolume:  row.SearchVolume,
			Difficulty:    row.Difficulty,
			LastCheckedAt: now,
		})
		if err != nil {
			e.logger.Error("Failed to store keyword",
				zap.Uint("client_id", clientID),
				zap.String("keyword", row.Keyword),
				zap.Error(err))
		}
	}

	e.logger.Info("Keywords synced",
		zap.Uint("client_id", clientID),
		zap.Int("keywords", len(rows)))
}
