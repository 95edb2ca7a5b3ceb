package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/models"
)

const reportWindowDays = 30

// ReportData is the assembled monthly report for one client. The
// engine only builds it; storing or delivering it is the caller's job.
type ReportData struct {
	ClientName  string    `json:"clientName"`
	Website     string    `json:"website"`
	Period      string    `json:"period"`
	GeneratedAt time.Time `json:"generatedAt"`

	Analytics          *AnalyticsSummary    `json:"analytics,omitempty"`
	KeywordRankings    []KeywordRanking     `json:"keywordRankings,omitempty"`
	ContentPerformance []ContentPerformance `json:"contentPerformance"`
	AutomationSummary  AutomationSummary    `json:"automationSummary"`
}

// AnalyticsSummary aggregates the trailing window of daily metrics.
type AnalyticsSummary struct {
	TotalSessions      int     `json:"totalSessions"`
	TotalUsers         int     `json:"totalUsers"`
	TotalPageViews     int     `json:"totalPageViews"`
	AvgBounceRate      float64 `json:"avgBounceRate"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	TotalConversions   int     `json:"totalConversions"`
}

type KeywordRanking struct {
	Keyword      string `json:"keyword"`
	CurrentRank  int    `json:"currentRank"`
	PreviousRank int    `json:"previousRank"`
	SearchVolume int    `json:"searchVolume"`
	Difficulty   int    `json:"difficulty"`
}

type ContentPerformance struct {
	Title        string     `json:"title"`
	PublishedAt  *time.Time `json:"publishedAt"`
	WordpressURL string     `json:"wordpressUrl"`
	Service      string     `json:"service"`
	Location     string     `json:"location"`
}

type AutomationSummary struct {
	TotalAutomations     int            `json:"totalAutomations"`
	CompletedAutomations int            `json:"completedAutomations"`
	FailedAutomations    int            `json:"failedAutomations"`
	RecentUploads        []RecentUpload `json:"recentUploads"`
}

type RecentUpload struct {
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateMonthlyReport assembles analytics totals, the keyword-rank
// snapshot, recent content and an automation summary for the client.
// Sections for disabled integrations are simply absent.
func (e *AutomationEngine) GenerateMonthlyReport(ctx context.Context, clientID uint) (*ReportData, error) {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := e.nowFunc()
	report := &ReportData{
		ClientName:  client.Name,
		Website:     client.Website,
		Period:      now.Format("2006-01"),
		GeneratedAt: now,
	}

	if client.GA4Configured() {
		report.Analytics = e.summarizeAnalytics(ctx, client)
	}

	if client.SEMrushConfigured() {
		keywords, err := e.store.ListKeywords(ctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load keywords: %w", err)
		}
		report.KeywordRankings = make([]KeywordRanking, 0, len(keywords))
		for _, kw := range keywords {
			report.KeywordRankings = append(report.KeywordRankings, KeywordRanking{
				Keyword:      kw.Keyword,
				CurrentRank:  kw.CurrentRank,
				PreviousRank: kw.PreviousRank,
				SearchVolume: kw.SearchVolume,
				Difficulty:   kw.Difficulty,
			})
		}
	}

	posts, err := e.store.FindRecentBlogPosts(ctx, clientID, "", 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}
	report.ContentPerformance = make([]ContentPerformance, 0, len(posts))
	for _, post := range posts {
		report.ContentPerformance = append(report.ContentPerformance, ContentPerformance{
			Title:        post.Title,
			PublishedAt:  post.PublishedAt,
			WordpressURL: post.WordpressURL,
			Service:      post.Service,
			Location:     post.Location,
		})
	}

	automations, err := e.store.ListAutomations(ctx, clientID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load automations: %w", err)
	}
	summary := AutomationSummary{
		TotalAutomations: len(automations),
		RecentUploads:    make([]RecentUpload, 0, 5),
	}
	for i, a := range automations {
		switch a.Status {
		case models.AutomationCompleted:
			summary.CompletedAutomations++
		case models.AutomationFailed:
			summary.FailedAutomations++
		}
		if i < 5 {
			summary.RecentUploads = append(summary.RecentUploads, RecentUpload{
				Title:     a.Title,
				Type:      a.UploadType,
				Status:    a.Status,
				CreatedAt: a.CreatedAt,
			})
		}
	}
	report.AutomationSummary = summary

	return report, nil
}

// summarizeAnalytics totals the trailing window of daily metrics.
// A provider failure or an empty window produces a zero summary; the
// averages guard against the zero-row case.
func (e *AutomationEngine) summarizeAnalytics(ctx context.Context, client *models.Client) *AnalyticsSummary {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	rows, err := e.metrics.FetchDailyMetrics(callCtx, client.GA4PropertyID, client.GA4AccessToken, reportWindowDays)
	if err != nil {
		e.logger.Error("Failed to fetch analytics for report",
			zap.Uint("client_id", client.ID),
			zap.Error(err))
		return &AnalyticsSummary{}
	}

	summary := &AnalyticsSummary{}
	for _, row := range rows {
		summary.TotalSessions += row.Sessions
		summary.TotalUsers += row.Users
		summary.TotalPageViews += row.PageViews
		summary.AvgBounceRate += row.BounceRate
		summary.AvgSessionDuration += row.AvgSessionDuration
		summary.TotalConversions += row.Conversions
	}
	if len(rows) > 0 {
		summary.AvgBounceRate /= float64(len(rows))
		summary.AvgSessionDuration /= float64(len(rows))
	}

	return summary
}
