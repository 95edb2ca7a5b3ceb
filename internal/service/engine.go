package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/models"
	"github.com/seoforge/seoforge/internal/repository"
	"github.com/seoforge/seoforge/internal/service/analytics"
	"github.com/seoforge/seoforge/internal/service/generator"
	"github.com/seoforge/seoforge/internal/service/publisher"
	"github.com/seoforge/seoforge/internal/service/ranking"
)

const (
	// A keyword losing this many positions or more triggers
	// re-optimization of the content ranking for it.
	rankDropThreshold = 5

	// How many recent posts a single keyword drop may rewrite.
	reoptimizePostLimit = 3

	// Target rank handed to the generator when a keyword has no
	// previous best rank to aim for.
	defaultTargetRank = 10

	// Bound on every external capability call.
	externalCallTimeout = 30 * time.Second
)

// ContentUpload describes one incoming content upload.
type ContentUpload struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FilePath    string `json:"file_path,omitempty"`
	Service     string `json:"service,omitempty"`
	Location    string `json:"location,omitempty"`
}

// AutomationEngine turns upload events into generate-and-publish
// workflows and runs the recurring rank-check, re-optimization, report
// and analytics-sync jobs.
type AutomationEngine struct {
	store     repository.Store
	generator generator.Generator
	cms       publisher.CmsPublisher
	listing   publisher.ListingPublisher
	rankings  ranking.Provider
	metrics   analytics.Provider
	logger    *zap.Logger

	callTimeout time.Duration
	nowFunc     func() time.Time
	wg          sync.WaitGroup
}

func NewAutomationEngine(
	store repository.Store,
	gen generator.Generator,
	cms publisher.CmsPublisher,
	listing publisher.ListingPublisher,
	rankings ranking.Provider,
	metrics analytics.Provider,
	logger *zap.Logger,
) *AutomationEngine {
	return &AutomationEngine{
		store:       store,
		generator:   gen,
		cms:         cms,
		listing:     listing,
		rankings:    rankings,
		metrics:     metrics,
		logger:      logger,
		callTimeout: externalCallTimeout,
		nowFunc:     time.Now,
	}
}

// ProcessUpload records the upload as an automation in processing and
// returns its id right away; generation and publishing continue on a
// detached goroutine so the caller is not held up by external APIs.
func (e *AutomationEngine) ProcessUpload(ctx context.Context, clientID uint, upload ContentUpload) (uint, error) {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return 0, err
	}

	automation := &models.Automation{
		UserID:      client.UserID,
		ClientID:    clientID,
		Title:       upload.Title,
		Description: upload.Description,
		UploadType:  upload.Type,
		Service:     upload.Service,
		Location:    upload.Location,
		Status:      models.AutomationProcessing,
	}
	if err := e.store.CreateAutomation(ctx, automation); err != nil {
		return 0, err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		// The triggering request may be long gone by the time the
		// workflow finishes, so the continuation gets its own context.
		e.runAutomation(context.Background(), automation.ID, upload, client)
	}()

	return automation.ID, nil
}

// Wait blocks until all in-flight automation continuations finish.
// Used by graceful shutdown and by tests.
func (e *AutomationEngine) Wait() {
	e.wg.Wait()
}

func (e *AutomationEngine) runAutomation(ctx context.Context, automationID uint, upload ContentUpload, client *models.Client) {
	result, err := e.executeAutomation(ctx, upload, client)
	if err != nil {
		e.logger.Error("Automation failed",
			zap.Uint("automation_id", automationID),
			zap.Uint("client_id", client.ID),
			zap.Error(err))

		if err := e.store.UpdateAutomationStatus(ctx, automationID, models.AutomationFailed, nil); err != nil {
			e.logger.Error("Failed to record automation failure",
				zap.Uint("automation_id", automationID),
				zap.Error(err))
		}
		return
	}

	if err := e.store.UpdateAutomationStatus(ctx, automationID, models.AutomationCompleted, result); err != nil {
		e.logger.Error("Failed to record automation completion",
			zap.Uint("automation_id", automationID),
			zap.Error(err))
		return
	}

	e.logger.Info("Automation completed",
		zap.Uint("automation_id", automationID),
		zap.Uint("client_id", client.ID),
		zap.Bool("wordpress_published", result.WordpressPostID != ""),
		zap.Bool("gbp_published", result.GBPPostID != ""))
}

// executeAutomation runs the workflow body. Content generation and the
// blog post write are required; publishing to each target is
// best-effort and only fills in references when it succeeds.
func (e *AutomationEngine) executeAutomation(ctx context.Context, upload ContentUpload, client *models.Client) (*repository.AutomationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	content, err := e.generator.Generate(callCtx, upload.Type, upload.Description, upload.Service, upload.Location)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	post := &models.BlogPost{
		ClientID:        client.ID,
		Title:           content.Title,
		MetaDescription: content.MetaDescription,
		Content:         content.Content,
		SchemaJSON:      content.SchemaJSON,
		Service:         content.Service,
		Location:        content.Location,
	}
	if err := e.store.CreateBlogPost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to persist blog post: %w", err)
	}

	result := &repository.AutomationResult{}
	if payload, err := json.Marshal(content); err == nil {
		result.GeneratedContent = string(payload)
	}

	if client.WordpressConfigured() {
		e.publishToWordpress(ctx, client, upload, content, post, result)
	}

	if client.GBPConfigured() && content.GBPSummary != "" {
		e.publishToListing(ctx, client, content, result)
	}

	return result, nil
}

func (e *AutomationEngine) publishToWordpress(ctx context.Context, client *models.Client, upload ContentUpload, content *generator.GeneratedContent, post *models.BlogPost, result *repository.AutomationResult) {
	mediaID := e.uploadMedia(ctx, client, upload)

	var published *publisher.PublishResult
	var err error

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	if upload.Type == models.UploadProjectNotes {
		published, err = e.cms.PublishPortfolioEntry(callCtx, client.WordpressURL, client.WordpressAPIKey, publisher.PortfolioInput{
			Title:       content.Title,
			Content:     content.Content,
			Excerpt:     content.MetaDescription,
			SchemaJSON:  content.SchemaJSON,
			MediaID:     mediaID,
			Service:     upload.Service,
			Location:    upload.Location,
			ProjectDate: e.nowFunc(),
		})
	} else {
		published, err = e.cms.PublishPost(callCtx, client.WordpressURL, client.WordpressAPIKey, publisher.PostInput{
			Title:      content.Title,
			Content:    content.Content,
			Excerpt:    content.MetaDescription,
			SchemaJSON: content.SchemaJSON,
			MediaID:    mediaID,
		})
	}
	if err != nil {
		e.logger.Error("Failed to publish to WordPress",
			zap.Uint("client_id", client.ID),
			zap.String("upload_type", upload.Type),
			zap.Error(err))
		return
	}

	result.WordpressPostID = published.PostID
	result.WordpressPostURL = published.URL

	if err := e.store.MarkBlogPostPublished(ctx, post.ID, published.PostID, published.URL, published.PublishedAt); err != nil {
		e.logger.Error("Failed to record blog post publication",
			zap.Uint("post_id", post.ID),
			zap.Error(err))
	}
}

// uploadMedia pushes the upload's file to WordPress as featured media.
// Any failure is non-fatal; the post is simply published without it.
func (e *AutomationEngine) uploadMedia(ctx context.Context, client *models.Client, upload ContentUpload) string {
	if upload.FilePath == "" {
		return ""
	}

	data, err := os.ReadFile(upload.FilePath)
	if err != nil {
		e.logger.Warn("Failed to read upload file, publishing without media",
			zap.String("file_path", upload.FilePath),
			zap.Error(err))
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	altText := fmt.Sprintf("%s - %s", upload.Title, upload.Description)
	media, err := e.cms.UploadMedia(callCtx, client.WordpressURL, client.WordpressAPIKey, data, filepath.Base(upload.FilePath), altText)
	if err != nil {
		e.logger.Warn("Failed to upload media to WordPress, publishing without it",
			zap.Uint("client_id", client.ID),
			zap.Error(err))
		return ""
	}

	return media.MediaID
}

func (e *AutomationEngine) publishToListing(ctx context.Context, client *models.Client, content *generator.GeneratedContent, result *repository.AutomationResult) {
	callToAction := result.WordpressPostURL
	if callToAction == "" {
		callToAction = client.Website
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	published, err := e.listing.PublishPost(callCtx, client.GBPBusinessID, client.GBPAccessToken, publisher.ListingPostInput{
		Title:        content.Title,
		Summary:      content.GBPSummary,
		Hashtags:     content.Hashtags,
		CallToAction: callToAction,
	})
	if err != nil {
		e.logger.Error("Failed to publish to listing",
			zap.Uint("client_id", client.ID),
			zap.Error(err))
		return
	}

	result.GBPPostID = published.PostID
}
