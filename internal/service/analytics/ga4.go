package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

// GA4Client implements Provider against the Google Analytics Data API.
type GA4Client struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
}

var _ Provider = (*GA4Client)(nil)

func NewGA4Client(logger *zap.Logger) *GA4Client {
	return &GA4Client{
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

type runReportRequest struct {
	DateRanges []dateRange `json:"dateRanges"`
	Dimensions []named     `json:"dimensions"`
	Metrics    []named     `json:"metrics"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type named struct {
	Name string `json:"name"`
}

type runReportResponse struct {
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

func (c *GA4Client) FetchDailyMetrics(ctx context.Context, propertyID, accessToken string, days int) ([]DailyMetrics, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	body, err := json.Marshal(runReportRequest{
		DateRanges: []dateRange{{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		}},
		Dimensions: []named{{Name: "date"}},
		Metrics: []named{
			{Name: "sessions"},
			{Name: "totalUsers"},
			{Name: "screenPageViews"},
			{Name: "bounceRate"},
			{Name: "averageSessionDuration"},
			{Name: "conversions"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analytics API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var response runReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	metrics := make([]DailyMetrics, 0, len(response.Rows))
	for _, row := range response.Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 6 {
			continue
		}

		// GA4 reports dates as YYYYMMDD.
		date, err := time.Parse("20060102", row.DimensionValues[0].Value)
		if err != nil {
			c.logger.Warn("Skipping analytics row with bad date",
				zap.String("date", row.DimensionValues[0].Value))
			continue
		}

		metrics = append(metrics, DailyMetrics{
			Date:               date,
			Sessions:           atoiOrZero(row.MetricValues[0].Value),
			Users:              atoiOrZero(row.MetricValues[1].Value),
			PageViews:          atoiOrZero(row.MetricValues[2].Value),
			BounceRate:         atofOrZero(row.MetricValues[3].Value),
			AvgSessionDuration: atofOrZero(row.MetricValues[4].Value),
			Conversions:        atoiOrZero(row.MetricValues[5].Value),
		})
	}

	return metrics, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atofOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
