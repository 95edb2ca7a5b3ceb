package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/models"
	"github.com/seoforge/seoforge/internal/repository"
	"github.com/seoforge/seoforge/internal/service/analytics"
	"github.com/seoforge/seoforge/internal/service/generator"
	"github.com/seoforge/seoforge/internal/service/publisher"
	"github.com/seoforge/seoforge/internal/service/ranking"
)

// fakeStore is an in-memory repository.Store for engine tests.
type fakeStore struct {
	mu sync.Mutex

	clients     map[uint]*models.Client
	automations []*models.Automation
	posts       []*models.BlogPost

	keywordRows    []models.Keyword
	keywordUpserts map[string]repository.KeywordUpsert

	analyticsRows    []models.Analytics
	analyticsUpserts map[string]repository.AnalyticsUpsert

	reports map[string]string

	nextAutomationID uint
	nextPostID       uint
}

func newFakeStore(clients ...*models.Client) *fakeStore {
	s := &fakeStore{
		clients:          make(map[uint]*models.Client),
		keywordUpserts:   make(map[string]repository.KeywordUpsert),
		analyticsUpserts: make(map[string]repository.AnalyticsUpsert),
		reports:          make(map[string]string),
	}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *fakeStore) GetClient(_ context.Context, id uint) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *client
	return &copied, nil
}

func (s *fakeStore) ListClients(_ context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) CreateAutomation(_ context.Context, automation *models.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAutomationID++
	automation.ID = s.nextAutomationID
	copied := *automation
	s.automations = append(s.automations, &copied)
	return nil
}

func (s *fakeStore) UpdateAutomationStatus(_ context.Context, id uint, status string, result *repository.AutomationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.automations {
		if a.ID != id {
			continue
		}
		if a.Status != models.AutomationProcessing {
			return repository.ErrNotFound
		}
		a.Status = status
		if result != nil {
			a.GeneratedContent = result.GeneratedContent
			a.WordpressPostID = result.WordpressPostID
			a.WordpressPostURL = result.WordpressPostURL
			a.GBPPostID = result.GBPPostID
		}
		return nil
	}
	return repository.ErrNotFound
}

func (s *fakeStore) ListAutomations(_ context.Context, clientID uint, limit int) ([]models.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Automation
	for i := len(s.automations) - 1; i >= 0; i-- {
		a := s.automations[i]
		if a.ClientID != clientID {
			continue
		}
		out = append(out, *a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) CreateBlogPost(_ context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPostID++
	post.ID = s.nextPostID
	copied := *post
	s.posts = append(s.posts, &copied)
	return nil
}

func (s *fakeStore) UpdateBlogPost(_ context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == post.ID {
			copied := *post
			s.posts[i] = &copied
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeStore) MarkBlogPostPublished(_ context.Context, id uint, postID, url string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			p.WordpressPostID = postID
			p.WordpressURL = url
			at := publishedAt
			p.PublishedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeStore) FindRecentBlogPosts(_ context.Context, clientID uint, contains string, limit int) ([]models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BlogPost
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if p.ClientID != clientID {
			continue
		}
		if contains != "" && !strings.Contains(p.Title, contains) && !strings.Contains(p.Content, contains) {
			continue
		}
		out = append(out, *p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertKeyword(_ context.Context, clientID uint, keyword string, fields repository.KeywordUpsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywordUpserts[keyword] = fields
	return nil
}

func (s *fakeStore) ListKeywords(_ context.Context, clientID uint) ([]models.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Keyword
	for _, kw := range s.keywordRows {
		if kw.ClientID == clientID {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertAnalytics(_ context.Context, clientID uint, date time.Time, fields repository.AnalyticsUpsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyticsUpserts[date.Format("2006-01-02")] = fields
	return nil
}

func (s *fakeStore) ListAnalytics(_ context.Context, clientID uint, days int) ([]models.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Analytics(nil), s.analyticsRows...), nil
}

func (s *fakeStore) UpsertReport(_ context.Context, clientID uint, period string, payload string, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[period] = payload
	return nil
}

func (s *fakeStore) automation(id uint) *models.Automation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.automations {
		if a.ID == id {
			copied := *a
			return &copied
		}
	}
	return nil
}

func (s *fakeStore) postByID(id uint) *models.BlogPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			copied := *p
			return &copied
		}
	}
	return nil
}

func (s *fakeStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

type fakeGenerator struct {
	mu sync.Mutex

	content *generator.GeneratedContent
	genErr  error

	reoptimized *generator.ReoptimizedContent
	reoptErr    error

	generateCalls   int
	reoptimizeCalls int
	lastRankDrop    int
	lastTargetRank  int
}

func (g *fakeGenerator) Generate(_ context.Context, uploadType, description, service, location string) (*generator.GeneratedContent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generateCalls++
	if g.genErr != nil {
		return nil, g.genErr
	}
	copied := *g.content
	return &copied, nil
}

func (g *fakeGenerator) Reoptimize(_ context.Context, original *generator.GeneratedContent, rankDrop int, keyword string, currentRank, targetRank int) (*generator.ReoptimizedContent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reoptimizeCalls++
	g.lastRankDrop = rankDrop
	g.lastTargetRank = targetRank
	if g.reoptErr != nil {
		return nil, g.reoptErr
	}
	copied := *g.reoptimized
	return &copied, nil
}

type fakeCms struct {
	mu sync.Mutex

	publishErr error
	result     publisher.PublishResult

	postCalls      int
	portfolioCalls int
	mediaCalls     int
	updateCalls    []publisher.PostInput
}

func (c *fakeCms) PublishPost(_ context.Context, endpoint, credential string, post publisher.PostInput) (*publisher.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postCalls++
	if c.publishErr != nil {
		return nil, c.publishErr
	}
	copied := c.result
	return &copied, nil
}

func (c *fakeCms) PublishPortfolioEntry(_ context.Context, endpoint, credential string, entry publisher.PortfolioInput) (*publisher.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.portfolioCalls++
	if c.publishErr != nil {
		return nil, c.publishErr
	}
	copied := c.result
	return &copied, nil
}

func (c *fakeCms) UpdatePost(_ context.Context, endpoint, credential, postID string, post publisher.PostInput) (*publisher.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls = append(c.updateCalls, post)
	if c.publishErr != nil {
		return nil, c.publishErr
	}
	copied := c.result
	return &copied, nil
}

func (c *fakeCms) UploadMedia(_ context.Context, endpoint, credential string, file []byte, filename, altText string) (*publisher.MediaResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mediaCalls++
	return &publisher.MediaResult{MediaID: "media-1"}, nil
}

type fakeListing struct {
	mu sync.Mutex

	publishErr error
	result     publisher.PublishResult

	calls     int
	lastInput publisher.ListingPostInput
}

func (l *fakeListing) PublishPost(_ context.Context, businessID, credential string, post publisher.ListingPostInput) (*publisher.PublishResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.lastInput = post
	if l.publishErr != nil {
		return nil, l.publishErr
	}
	copied := l.result
	return &copied, nil
}

type fakeRanking struct {
	mu sync.Mutex

	trackRows  []ranking.RankingData
	trackErr   error
	domainRows []ranking.RankingData
	domainErr  error

	trackCalls   int
	lastKeywords []string
}

func (r *fakeRanking) TrackRankings(_ context.Context, apiKey, domain string, keywords []string) ([]ranking.RankingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackCalls++
	r.lastKeywords = append([]string(nil), keywords...)
	if r.trackErr != nil {
		return nil, r.trackErr
	}
	return r.trackRows, nil
}

func (r *fakeRanking) FetchDomainKeywords(_ context.Context, apiKey, domain string) ([]ranking.RankingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.domainErr != nil {
		return nil, r.domainErr
	}
	return r.domainRows, nil
}

type fakeAnalytics struct {
	rows []analytics.DailyMetrics
	err  error
}

func (a *fakeAnalytics) FetchDailyMetrics(_ context.Context, propertyID, accessToken string, days int) ([]analytics.DailyMetrics, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.rows, nil
}

func fullyConfiguredClient() *models.Client {
	return &models.Client{
		ID:      1,
		UserID:  7,
		Name:    "Acme Roofing",
		Website: "acmeroofing.example",

		WordpressEnabled: true,
		WordpressURL:     "https://acmeroofing.example",
		WordpressAPIKey:  "wp-key",

		GBPEnabled:     true,
		GBPBusinessID:  "accounts/1/locations/2",
		GBPAccessToken: "gbp-token",

		SEMrushEnabled: true,
		SEMrushAPIKey:  "sem-key",

		GA4Enabled:     true,
		GA4PropertyID:  "123456",
		GA4AccessToken: "ga4-token",

		ReoptimizationEnabled: true,
	}
}

func sampleContent() *generator.GeneratedContent {
	return &generator.GeneratedContent{
		Title:           "Roof Repair in Springfield",
		MetaDescription: "Expert roof repair services.",
		Content:         "Long article about roof repair.",
		SchemaJSON:      `{"@type":"Article"}`,
		Service:         "roof repair",
		Location:        "Springfield",
		Hashtags:        []string{"#roofing"},
		GBPSummary:      "We just finished another roof repair.",
	}
}

type engineFixture struct {
	store   *fakeStore
	gen     *fakeGenerator
	cms     *fakeCms
	listing *fakeListing
	rank    *fakeRanking
	metrics *fakeAnalytics
	engine  *AutomationEngine
}

func newEngineFixture(clients ...*models.Client) *engineFixture {
	f := &engineFixture{
		store: newFakeStore(clients...),
		gen: &fakeGenerator{
			content: sampleContent(),
			reoptimized: &generator.ReoptimizedContent{
				Title:           "Roof Repair in Springfield, Updated",
				MetaDescription: "Refreshed roof repair guide.",
				Content:         "Rewritten article about roof repair.",
				Improvements:    []string{"added FAQ section"},
				Reason:          "keyword slipped in rankings",
			},
		},
		cms: &fakeCms{result: publisher.PublishResult{
			PostID:      "101",
			URL:         "https://acmeroofing.example/blog/roof-repair",
			PublishedAt: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
		}},
		listing: &fakeListing{result: publisher.PublishResult{PostID: "gbp-post-1"}},
		rank:    &fakeRanking{},
		metrics: &fakeAnalytics{},
	}
	f.engine = NewAutomationEngine(f.store, f.gen, f.cms, f.listing, f.rank, f.metrics, zap.NewNop())
	return f
}

func TestProcessUploadPublishesEverywhere(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())

	id, err := f.engine.ProcessUpload(context.Background(), 1, ContentUpload{
		Type:        models.UploadPhoto,
		Title:       "New roof in Springfield",
		Description: "Completed a full roof replacement.",
	})
	if err != nil {
		t.Fatalf("ProcessUpload error: %v", err)
	}
	f.engine.Wait()

	automation := f.store.automation(id)
	if automation == nil {
		t.Fatal("automation not recorded")
	}
	if automation.Status != models.AutomationCompleted {
		t.Fatalf("status = %q, want %q", automation.Status, models.AutomationCompleted)
	}
	if automation.GeneratedContent == "" {
		t.Error("generated content not recorded on automation")
	}
	if automation.WordpressPostID != "101" {
		t.Errorf("wordpress post id = %q, want 101", automation.WordpressPostID)
	}
	if automation.GBPPostID != "gbp-post-1" {
		t.Errorf("gbp post id = %q, want gbp-post-1", automation.GBPPostID)
	}

	if f.store.postCount() != 1 {
		t.Fatalf("blog posts = %d, want 1", f.store.postCount())
	}
	post := f.store.postByID(1)
	if post.WordpressPostID != "101" || post.PublishedAt == nil {
		t.Errorf("blog post not marked published: %+v", post)
	}

	if f.listing.lastInput.CallToAction != "https://acmeroofing.example/blog/roof-repair" {
		t.Errorf("listing CTA = %q, want the wordpress URL", f.listing.lastInput.CallToAction)
	}
}

func TestProcessUploadGenerationFailureFailsAutomation(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	f.gen.genErr = errors.New("model unavailable")

	id, err := f.engine.ProcessUpload(context.Background(), 1, ContentUpload{
		Type:  models.UploadPhoto,
		Title: "New roof",
	})
	if err != nil {
		t.Fatalf("ProcessUpload error: %v", err)
	}
	f.engine.Wait()

	automation := f.store.automation(id)
	if automation.Status != models.AutomationFailed {
		t.Fatalf("status = %q, want %q", automation.Status, models.AutomationFailed)
	}
	if f.store.postCount() != 0 {
		t.Errorf("blog posts = %d, want 0", f.store.postCount())
	}
	if f.cms.postCalls != 0 || f.listing.calls != 0 {
		t.Error("publishers should not be called after generation failure")
	}
}

func TestProcessUploadCmsFailureStillCompletes(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	f.cms.publishErr = errors.New("wordpress down")

	id, err := f.engine.ProcessUpload(context.Background(), 1, ContentUpload{
		Type:  models.UploadTestimonial,
		Title: "Great review",
	})
	if err != nil {
		t.Fatalf("ProcessUpload error: %v", err)
	}
	f.engine.Wait()

	automation := f.store.automation(id)
	if automation.Status != models.AutomationCompleted {
		t.Fatalf("status = %q, want %q", automation.Status, models.AutomationCompleted)
	}
	if automation.WordpressPostID != "" {
		t.Errorf("wordpress post id = %q, want empty after publish failure", automation.WordpressPostID)
	}

	post := f.store.postByID(1)
	if post == nil {
		t.Fatal("blog post should still be persisted")
	}
	if post.PublishedAt != nil {
		t.Error("blog post should not be marked published")
	}

	// No CMS URL to point at, the listing post links to the site itself.
	if f.listing.lastInput.CallToAction != "acmeroofing.example" {
		t.Errorf("listing CTA = %q, want the client website", f.listing.lastInput.CallToAction)
	}
}

func TestProcessUploadProjectNotesUsesPortfolio(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())

	_, err := f.engine.ProcessUpload(context.Background(), 1, ContentUpload{
		Type:     models.UploadProjectNotes,
		Title:    "Warehouse re-roof",
		Service:  "commercial roofing",
		Location: "Springfield",
	})
	if err != nil {
		t.Fatalf("ProcessUpload error: %v", err)
	}
	f.engine.Wait()

	if f.cms.portfolioCalls != 1 {
		t.Errorf("portfolio calls = %d, want 1", f.cms.portfolioCalls)
	}
	if f.cms.postCalls != 0 {
		t.Errorf("post calls = %d, want 0", f.cms.postCalls)
	}
}

func TestProcessUploadUnknownClient(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())

	_, err := f.engine.ProcessUpload(context.Background(), 42, ContentUpload{Type: models.UploadPhoto})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(f.store.automations) != 0 {
		t.Error("no automation should be recorded for an unknown client")
	}
}

func TestProcessUploadSkipsUnconfiguredTargets(t *testing.T) {
	client := &models.Client{ID: 1, UserID: 7, Name: "Bare", Website: "bare.example"}
	f := newEngineFixture(client)

	id, err := f.engine.ProcessUpload(context.Background(), 1, ContentUpload{
		Type:  models.UploadPhoto,
		Title: "New roof",
	})
	if err != nil {
		t.Fatalf("ProcessUpload error: %v", err)
	}
	f.engine.Wait()

	automation := f.store.automation(id)
	if automation.Status != models.AutomationCompleted {
		t.Fatalf("status = %q, want %q", automation.Status, models.AutomationCompleted)
	}
	if f.cms.postCalls != 0 || f.cms.portfolioCalls != 0 || f.listing.calls != 0 {
		t.Error("no publisher should be called without configured integrations")
	}
	if f.store.postCount() != 1 {
		t.Errorf("blog posts = %d, want 1", f.store.postCount())
	}
}

func seedKeyword(f *engineFixture, keyword string, currentRank int) {
	f.store.keywordRows = append(f.store.keywordRows, models.Keyword{
		ClientID:    1,
		Keyword:     keyword,
		CurrentRank: currentRank,
	})
}

func seedPost(f *engineFixture, title, content, wordpressPostID string) uint {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.nextPostID++
	f.store.posts = append(f.store.posts, &models.BlogPost{
		ID:              f.store.nextPostID,
		ClientID:        1,
		Title:           title,
		Content:         content,
		SchemaJSON:      `{"@type":"Article"}`,
		WordpressPostID: wordpressPostID,
	})
	return f.store.nextPostID
}

func TestCheckReoptimizationSkipsWhenDisabled(t *testing.T) {
	client := fullyConfiguredClient()
	client.ReoptimizationEnabled = false
	f := newEngineFixture(client)
	seedKeyword(f, "roof repair", 20)

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}
	if f.rank.trackCalls != 0 {
		t.Error("ranking provider should not be called when re-optimization is disabled")
	}
}

func TestCheckReoptimizationSkipsWithoutCredential(t *testing.T) {
	client := fullyConfiguredClient()
	client.SEMrushAPIKey = ""
	f := newEngineFixture(client)
	seedKeyword(f, "roof repair", 20)

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}
	if f.rank.trackCalls != 0 {
		t.Error("ranking provider should not be called without a ranking credential")
	}
	if len(f.store.keywordUpserts) != 0 {
		t.Error("keyword rows should be untouched without a ranking credential")
	}
}

func TestCheckReoptimizationSkipsWithoutKeywords(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}
	if f.rank.trackCalls != 0 {
		t.Error("ranking provider should not be called with no tracked keywords")
	}
}

func TestCheckReoptimizationThresholdBoundary(t *testing.T) {
	tests := []struct {
		name        string
		storedRank  int
		newRank     int
		wantRewrite bool
	}{
		{"drop of five triggers", 20, 15, true},
		{"drop of four does not", 20, 16, false},
		{"improvement does not", 10, 15, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(fullyConfiguredClient())
			seedKeyword(f, "roof repair", tt.storedRank)
			seedPost(f, "Roof Repair Guide", "All about roof repair.", "")
			f.rank.trackRows = []ranking.RankingData{{
				Keyword:      "roof repair",
				CurrentRank:  tt.newRank,
				SearchVolume: 900,
				Difficulty:   40,
			}}

			if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
				t.Fatalf("CheckReoptimizationTriggers error: %v", err)
			}

			rewrote := f.gen.reoptimizeCalls > 0
			if rewrote != tt.wantRewrite {
				t.Errorf("reoptimize called = %v, want %v", rewrote, tt.wantRewrite)
			}

			upsert, ok := f.store.keywordUpserts["roof repair"]
			if !ok {
				t.Fatal("keyword rank should be upserted after the sweep")
			}
			if upsert.CurrentRank != tt.newRank {
				t.Errorf("upserted current rank = %d, want %d", upsert.CurrentRank, tt.newRank)
			}
			if upsert.PreviousRank == nil || *upsert.PreviousRank != tt.storedRank {
				t.Errorf("upserted previous rank = %v, want %d", upsert.PreviousRank, tt.storedRank)
			}
		})
	}
}

func TestCheckReoptimizationUnrankedKeyword(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	seedKeyword(f, "roof repair", 0)
	seedPost(f, "Roof Repair Guide", "All about roof repair.", "")
	f.rank.trackRows = []ranking.RankingData{{Keyword: "roof repair", CurrentRank: 95}}

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}

	// Never-ranked keywords are treated as rank 100, so 100-95 meets
	// the threshold, with the fallback target rank handed to the
	// generator.
	if f.gen.reoptimizeCalls == 0 {
		t.Fatal("unranked keyword appearing at 95 should trigger a rewrite")
	}
	if f.gen.lastRankDrop != 5 {
		t.Errorf("rank drop = %d, want 5", f.gen.lastRankDrop)
	}
	if f.gen.lastTargetRank != defaultTargetRank {
		t.Errorf("target rank = %d, want %d", f.gen.lastTargetRank, defaultTargetRank)
	}
}

func TestCheckReoptimizationProviderFailureAbortsSweep(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	seedKeyword(f, "roof repair", 20)
	f.rank.trackErr = errors.New("quota exceeded")

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err == nil {
		t.Fatal("expected error when the batched ranking call fails")
	}
	if len(f.store.keywordUpserts) != 0 {
		t.Error("no keyword rows should change when the sweep aborts")
	}
	if f.gen.reoptimizeCalls != 0 {
		t.Error("no rewrites should happen when the sweep aborts")
	}
}

func TestReoptimizationRepublishesPublishedPosts(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	seedKeyword(f, "roof repair", 20)
	postID := seedPost(f, "Roof Repair Guide", "All about roof repair.", "wp-55")
	f.rank.trackRows = []ranking.RankingData{{Keyword: "roof repair", CurrentRank: 30}}

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}

	post := f.store.postByID(postID)
	if post.Title != f.gen.reoptimized.Title {
		t.Errorf("post title = %q, want rewritten title", post.Title)
	}
	if post.SchemaJSON != `{"@type":"Article"}` {
		t.Errorf("schema markup should be preserved, got %q", post.SchemaJSON)
	}

	if len(f.cms.updateCalls) != 1 {
		t.Fatalf("cms update calls = %d, want 1", len(f.cms.updateCalls))
	}
	update := f.cms.updateCalls[0]
	if update.Meta["reoptimization_reason"] == "" {
		t.Error("re-publish should carry the rewrite rationale")
	}
	if update.Meta["reoptimization_improvements"] == "" {
		t.Error("re-publish should carry the improvement list")
	}
}

func TestReoptimizationSkipsRepublishForUnpublishedPosts(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	seedKeyword(f, "roof repair", 20)
	seedPost(f, "Roof Repair Guide", "All about roof repair.", "")
	f.rank.trackRows = []ranking.RankingData{{Keyword: "roof repair", CurrentRank: 30}}

	if err := f.engine.CheckReoptimizationTriggers(context.Background(), 1); err != nil {
		t.Fatalf("CheckReoptimizationTriggers error: %v", err)
	}
	if f.gen.reoptimizeCalls != 1 {
		t.Fatalf("reoptimize calls = %d, want 1", f.gen.reoptimizeCalls)
	}
	if len(f.cms.updateCalls) != 0 {
		t.Error("unpublished posts should not be pushed to the CMS")
	}
}

func TestGenerateMonthlyReport(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	f.engine.nowFunc = func() time.Time {
		return time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	}

	f.metrics.rows = []analytics.DailyMetrics{
		{Date: time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC), Sessions: 100, Users: 80, PageViews: 300, BounceRate: 40, AvgSessionDuration: 120, Conversions: 3},
		{Date: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), Sessions: 50, Users: 40, PageViews: 100, BounceRate: 60, AvgSessionDuration: 60, Conversions: 1},
	}
	seedKeyword(f, "roof repair", 8)
	seedPost(f, "Roof Repair Guide", "All about roof repair.", "wp-55")

	for _, status := range []string{models.AutomationCompleted, models.AutomationCompleted, models.AutomationFailed, models.AutomationProcessing} {
		f.store.automations = append(f.store.automations, &models.Automation{
			ID: uint(len(f.store.automations) + 1), ClientID: 1, Title: "upload", UploadType: models.UploadPhoto, Status: status,
		})
	}

	report, err := f.engine.GenerateMonthlyReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenerateMonthlyReport error: %v", err)
	}

	if report.Period != "2026-03" {
		t.Errorf("period = %q, want 2026-03", report.Period)
	}
	if report.ClientName != "Acme Roofing" {
		t.Errorf("client name = %q", report.ClientName)
	}

	if report.Analytics == nil {
		t.Fatal("analytics section missing")
	}
	if report.Analytics.TotalSessions != 150 {
		t.Errorf("total sessions = %d, want 150", report.Analytics.TotalSessions)
	}
	if report.Analytics.AvgBounceRate != 50 {
		t.Errorf("avg bounce rate = %v, want 50", report.Analytics.AvgBounceRate)
	}

	if len(report.KeywordRankings) != 1 {
		t.Fatalf("keyword rankings = %d, want 1", len(report.KeywordRankings))
	}
	if len(report.ContentPerformance) != 1 {
		t.Errorf("content entries = %d, want 1", len(report.ContentPerformance))
	}

	summary := report.AutomationSummary
	if summary.TotalAutomations != 4 || summary.CompletedAutomations != 2 || summary.FailedAutomations != 1 {
		t.Errorf("automation summary = %+v", summary)
	}
	if len(summary.RecentUploads) != 4 {
		t.Errorf("recent uploads = %d, want 4", len(summary.RecentUploads))
	}
}

func TestGenerateMonthlyReportEmptyAnalyticsWindow(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())

	report, err := f.engine.GenerateMonthlyReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenerateMonthlyReport error: %v", err)
	}
	if report.Analytics == nil {
		t.Fatal("analytics section missing")
	}
	if report.Analytics.AvgBounceRate != 0 || report.Analytics.AvgSessionDuration != 0 {
		t.Errorf("averages over an empty window should be zero, got %+v", report.Analytics)
	}
}

func TestGenerateMonthlyReportSkipsDisabledSections(t *testing.T) {
	client := &models.Client{ID: 1, UserID: 7, Name: "Bare", Website: "bare.example"}
	f := newEngineFixture(client)

	report, err := f.engine.GenerateMonthlyReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenerateMonthlyReport error: %v", err)
	}
	if report.Analytics != nil {
		t.Error("analytics section should be absent without GA4")
	}
	if report.KeywordRankings != nil {
		t.Error("keyword section should be absent without a ranking integration")
	}
}

func TestSyncAnalytics(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	f.metrics.rows = []analytics.DailyMetrics{
		{Date: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), Sessions: 10, Users: 8, PageViews: 25, BounceRate: 45, AvgSessionDuration: 90, Conversions: 1},
		{Date: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), Sessions: 12, Users: 9, PageViews: 30, BounceRate: 50, AvgSessionDuration: 100, Conversions: 2},
	}
	f.rank.domainRows = []ranking.RankingData{
		{Keyword: "roof repair", CurrentRank: 8, SearchVolume: 900, Difficulty: 40},
		{Keyword: "gutter cleaning", CurrentRank: 14, SearchVolume: 300, Difficulty: 25},
	}

	if err := f.engine.SyncAnalytics(context.Background(), 1); err != nil {
		t.Fatalf("SyncAnalytics error: %v", err)
	}

	if len(f.store.analyticsUpserts) != 2 {
		t.Errorf("analytics upserts = %d, want 2", len(f.store.analyticsUpserts))
	}
	row, ok := f.store.analyticsUpserts["2026-03-10"]
	if !ok {
		t.Fatal("missing upsert for 2026-03-10")
	}
	if row.Sessions != 12 || row.Conversions != 2 {
		t.Errorf("upserted row = %+v", row)
	}

	if len(f.store.keywordUpserts) != 2 {
		t.Fatalf("keyword upserts = %d, want 2", len(f.store.keywordUpserts))
	}
	kw := f.store.keywordUpserts["roof repair"]
	if kw.CurrentRank != 8 {
		t.Errorf("keyword rank = %d, want 8", kw.CurrentRank)
	}
	if kw.PreviousRank != nil {
		t.Error("analytics sync should not rotate previous rank")
	}
}

func TestSyncAnalyticsPartialFailure(t *testing.T) {
	f := newEngineFixture(fullyConfiguredClient())
	f.metrics.err = errors.New("ga4 unavailable")
	f.rank.domainRows = []ranking.RankingData{{Keyword: "roof repair", CurrentRank: 8}}

	if err := f.engine.SyncAnalytics(context.Background(), 1); err != nil {
		t.Fatalf("SyncAnalytics error: %v", err)
	}
	if len(f.store.analyticsUpserts) != 0 {
		t.Error("no analytics rows should be written when the provider fails")
	}
	if len(f.store.keywordUpserts) != 1 {
		t.Error("keyword sync should still run when the analytics side fails")
	}
}

func TestSyncAnalyticsSkipsDisabledIntegrations(t *testing.T) {
	client := &models.Client{ID: 1, UserID: 7, Name: "Bare", Website: "bare.example"}
	f := newEngineFixture(client)

	if err := f.engine.SyncAnalytics(context.Background(), 1); err != nil {
		t.Fatalf("SyncAnalytics error: %v", err)
	}
	if len(f.store.analyticsUpserts) != 0 || len(f.store.keywordUpserts) != 0 {
		t.Error("nothing should be written for a client without integrations")
	}
}
