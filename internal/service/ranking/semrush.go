package ranking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.semrush.com"

// SEMrushClient implements Provider against the SEMrush analytics API,
// which answers with pipe-separated CSV. Requests are throttled through
// a token bucket because the API enforces a strict per-key rate limit.
type SEMrushClient struct {
	logger  *zap.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

var _ Provider = (*SEMrushClient)(nil)

func NewSEMrushClient(logger *zap.Logger) *SEMrushClient {
	return &SEMrushClient{
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: defaultBaseURL,
	}
}

func (c *SEMrushClient) TrackRankings(ctx context.Context, apiKey, domain string, keywords []string) ([]RankingData, error) {
	params := url.Values{}
	params.Set("type", "phrase_this")
	params.Set("key", apiKey)
	params.Set("phrase", strings.Join(keywords, ","))
	params.Set("db", "us")
	params.Set("export_columns", "Ph,Po,Nq,Kd,Cp")

	return c.query(ctx, params)
}

func (c *SEMrushClient) FetchDomainKeywords(ctx context.Context, apiKey, domain string) ([]RankingData, error) {
	params := url.Values{}
	params.Set("type", "domain_organic")
	params.Set("key", apiKey)
	params.Set("domain", domain)
	params.Set("db", "us")
	params.Set("export_columns", "Ph,Po,Nq,Kd,Cp")

	return c.query(ctx, params)
}

func (c *SEMrushClient) query(ctx context.Context, params url.Values) ([]RankingData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ranking API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseCSV(string(body)), nil
}

// parseCSV decodes the provider's pipe-separated report. The first line
// is a header; columns are keyword, position, volume, difficulty, cpc.
func parseCSV(data string) []RankingData {
	var rows []RankingData

	lines := strings.Split(data, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < 4 {
			continue
		}

		rows = append(rows, RankingData{
			Keyword:      strings.TrimSpace(fields[0]),
			CurrentRank:  atoiOrZero(fields[1]),
			SearchVolume: atoiOrZero(fields[2]),
			Difficulty:   atoiOrZero(fields[3]),
		})
	}

	return rows
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
