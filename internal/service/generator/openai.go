package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/config"
)

// OpenAIGenerator implements Generator against an OpenAI-compatible
// chat completions API. The model is asked to answer with a JSON object
// which is extracted from the completion text.
type OpenAIGenerator struct {
	endpoint string
	model    string
	apiKey   string
	logger   *zap.Logger
	client   *http.Client
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(cfg config.GeneratorConfig, logger *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		logger:   logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, uploadType, description, service, location string) (*GeneratedContent, error) {
	var sb strings.Builder
	sb.WriteString("You are an expert SEO content writer. Generate a high-quality, SEO-optimized blog post based on the following information:\n\n")
	fmt.Fprintf(&sb, "Upload Type: %s\nDescription: %s\n", uploadType, description)
	if service != "" {
		fmt.Fprintf(&sb, "Service: %s\n", service)
	}
	if location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", location)
	}
	sb.WriteString(`
Please provide the response in the following JSON format:
{
  "title": "SEO-optimized title (60 characters max)",
  "metaDescription": "Meta description (160 characters max)",
  "content": "Full blog post content (at least 800 words, well-structured with headings)",
  "schemaJson": "JSON-LD schema markup for the content",
  "hashtags": ["array", "of", "relevant", "hashtags"],
  "gbpSummary": "Condensed summary for Google Business Profile (1500 characters max)"
}

Make sure the content is:
- Optimized for search engines with proper keyword integration
- Well-structured with proper headings (H1, H2, H3)
- Includes relevant keywords naturally
- Provides value to readers
- Includes a call-to-action
- Contains schema markup for LocalBusiness/Service/Article`)

	raw, err := g.complete(ctx, sb.String(), 0.7, 2500)
	if err != nil {
		return nil, err
	}

	var content GeneratedContent
	if err := unmarshalCompletion(raw, &content); err != nil {
		return nil, fmt.Errorf("failed to parse generated content: %w", err)
	}
	content.Service = service
	content.Location = location

	return &content, nil
}

func (g *OpenAIGenerator) Reoptimize(ctx context.Context, original *GeneratedContent, rankDrop int, keyword string, currentRank, targetRank int) (*ReoptimizedContent, error) {
	preview := original.Content
	if len(preview) > 500 {
		preview = preview[:500]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an SEO expert. The following content has experienced a ranking drop of %d positions for the keyword %q (currently ranking at position %d, target is %d).\n\n",
		rankDrop, keyword, currentRank, targetRank)
	fmt.Fprintf(&sb, "Original Content:\nTitle: %s\nMeta Description: %s\nContent Preview: %s...\n",
		original.Title, original.MetaDescription, preview)
	sb.WriteString(`
Please re-optimize this content to improve rankings. Provide the response in JSON format:
{
  "title": "Re-optimized title",
  "metaDescription": "Re-optimized meta description",
  "content": "Full re-optimized content with improvements",
  "improvements": ["List of specific SEO improvements made"],
  "reason": "Explanation of why these changes should improve rankings"
}

Focus on:
- Keyword optimization and density
- Content freshness and depth
- Internal linking suggestions
- Schema markup improvements
- User engagement elements`)

	raw, err := g.complete(ctx, sb.String(), 0.6, 2000)
	if err != nil {
		return nil, err
	}

	var content ReoptimizedContent
	if err := unmarshalCompletion(raw, &content); err != nil {
		return nil, fmt.Errorf("failed to parse re-optimization content: %w", err)
	}

	return &content, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("generator API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content generated")
	}

	return response.Choices[0].Message.Content, nil
}

// unmarshalCompletion pulls the first JSON object out of a completion
// that may be wrapped in prose or markdown fences.
func unmarshalCompletion(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("completion contains no JSON object")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), out)
}
