package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/service/publisher"
)

// Publisher talks to the WordPress REST API (wp-json/wp/v2). Posts are
// created as drafts so a human can review; portfolio entries go live
// directly because they are pre-structured.
type Publisher struct {
	logger *zap.Logger
	client *http.Client
}

var _ publisher.CmsPublisher = (*Publisher)(nil)

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type postRequest struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Excerpt       string            `json:"excerpt,omitempty"`
	Status        string            `json:"status"`
	Meta          map[string]string `json:"meta,omitempty"`
	FeaturedMedia int               `json:"featured_media,omitempty"`
	ACF           map[string]string `json:"acf,omitempty"`
}

type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

type mediaResponse struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (p *Publisher) PublishPost(ctx context.Context, endpoint, credential string, post publisher.PostInput) (*publisher.PublishResult, error) {
	req := postRequest{
		Title:         post.Title,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		Status:        "draft",
		Meta:          postMeta(post),
		FeaturedMedia: atoiOrZero(post.MediaID),
	}
	return p.createContent(ctx, endpoint, credential, "/posts", req)
}

func (p *Publisher) PublishPortfolioEntry(ctx context.Context, endpoint, credential string, entry publisher.PortfolioInput) (*publisher.PublishResult, error) {
	req := postRequest{
		Title:   entry.Title,
		Content: entry.Content,
		Excerpt: entry.Excerpt,
		Status:  "publish",
		Meta: map[string]string{
			"description": entry.Excerpt,
			"schema":      entry.SchemaJSON,
		},
		FeaturedMedia: atoiOrZero(entry.MediaID),
		ACF: map[string]string{
			"service":      entry.Service,
			"location":     entry.Location,
			"project_date": entry.ProjectDate.Format(time.RFC3339),
		},
	}
	return p.createContent(ctx, endpoint, credential, "/portfolio", req)
}

func (p *Publisher) UpdatePost(ctx context.Context, endpoint, credential, postID string, post publisher.PostInput) (*publisher.PublishResult, error) {
	req := postRequest{
		Title:   post.Title,
		Content: post.Content,
		Excerpt: post.Excerpt,
		Status:  "publish",
		Meta:    postMeta(post),
	}
	return p.createContent(ctx, endpoint, credential, "/posts/"+postID, req)
}

func (p *Publisher) createContent(ctx context.Context, endpoint, credential, path string, body postRequest) (*publisher.PublishResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL(endpoint, path), bytes.NewReader(payload))
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
		return nil, decodeError(resp, "failed to create WordPress content")
	}

	var response postResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &publisher.PublishResult{
		PostID:      strconv.Itoa(response.ID),
		URL:         response.Link,
		PublishedAt: time.Now(),
	}, nil
}

func (p *Publisher) UploadMedia(ctx context.Context, endpoint, credential string, file []byte, filename, altText string) (*publisher.MediaResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if altText != "" {
		if err := writer.WriteField("alt_text", altText); err != nil {
			return nil, fmt.Errorf("failed to write alt text field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL(endpoint, "/media"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp, "failed to upload media to WordPress")
	}

	var response mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &publisher.MediaResult{
		MediaID: strconv.Itoa(response.ID),
		URL:     response.SourceURL,
	}, nil
}

func postMeta(post publisher.PostInput) map[string]string {
	meta := map[string]string{
		"description": post.Excerpt,
		"schema":      post.SchemaJSON,
	}
	for k, v := range post.Meta {
		meta[k] = v
	}
	return meta
}

func apiURL(endpoint, path string) string {
	return strings.TrimSuffix(endpoint, "/") + "/wp-json/wp/v2" + path
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func decodeError(resp *http.Response, fallback string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("wordpress API returned status %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("%s: status %d", fallback, resp.StatusCode)
}
