package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/service/publisher"
)

const (
	defaultBaseURL = "https://mybusiness.googleapis.com/v4"

	// Google Business Profile caps post summaries at 1500 characters.
	summaryLimit = 1500
)

// Publisher posts to Google Business Profile locations.
type Publisher struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
}

var _ publisher.ListingPublisher = (*Publisher)(nil)

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

type localPostRequest struct {
	Summary      string        `json:"summary"`
	TopicType    string        `json:"topicType"`
	Media        []mediaItem   `json:"media"`
	CallToAction *callToAction `json:"callToAction,omitempty"`
}

type mediaItem struct {
	MediaFormat string `json:"mediaFormat"`
	SourceURL   string `json:"sourceUrl"`
}

type callToAction struct {
	ActionType string `json:"actionType"`
	URL        string `json:"url"`
}

type localPostResponse struct {
	Name string `json:"name"`
}

func (p *Publisher) PublishPost(ctx context.Context, businessID, credential string, post publisher.ListingPostInput) (*publisher.PublishResult, error) {
	summary := post.Summary
	if tags := hashtagLine(post.Hashtags); tags != "" {
		summary = strings.TrimSpace(summary + " " + tags)
	}
	summary = truncateSummary(summary, summaryLimit)

	body := localPostRequest{
		Summary:   summary,
		TopicType: "STANDARD_POST",
		Media:     []mediaItem{},
	}
	if post.ImageURL != "" {
		body.Media = append(body.Media, mediaItem{MediaFormat: "PHOTO", SourceURL: post.ImageURL})
	}
	if post.CallToAction != "" {
		body.CallToAction = &callToAction{ActionType: "LEARN_MORE", URL: post.CallToAction}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/0/locations/%s/posts", p.baseURL, businessID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("GBP API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response localPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &publisher.PublishResult{
		PostID:      response.Name,
		PublishedAt: time.Now(),
	}, nil
}

// truncateSummary cuts the summary to at most limit bytes without
// splitting a multi-byte rune.
func truncateSummary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func hashtagLine(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			continue
		}
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}
