package analytics

import (
	"context"
	"time"
)

// DailyMetrics is one day of traffic and engagement numbers.
type DailyMetrics struct {
	Date               time.Time
	Sessions           int
	Users              int
	PageViews          int
	BounceRate         float64
	AvgSessionDuration float64
	Conversions        int
}

// Provider fetches traffic metrics for a client's analytics property.
type Provider interface {
	FetchDailyMetrics(ctx context.Context, propertyID, accessToken string, days int) ([]DailyMetrics, error)
}
