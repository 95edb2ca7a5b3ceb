package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seoforge/seoforge/internal/models"
	"github.com/seoforge/seoforge/internal/repository"
	"github.com/seoforge/seoforge/internal/service/generator"
	"github.com/seoforge/seoforge/internal/service/publisher"
	"github.com/seoforge/seoforge/internal/service/ranking"
)

// CheckReoptimizationTriggers fetches current rankings for all tracked
// keywords in one batched call and rewrites content for keywords that
// dropped significantly. Keyword rows are upserted with the new rank
// after any rewrite so the drop is computed against the old value.
// It is a silent no-op when the client has re-optimization or the
// ranking integration disabled.
func (e *AutomationEngine) CheckReoptimizationTriggers(ctx context.Context, clientID uint) error {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}

	if !client.ReoptimizationEnabled || !client.SEMrushConfigured() {
		return nil
	}

	keywords, err := e.store.ListKeywords(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load tracked keywords: %w", err)
	}
	if len(keywords) == 0 {
		return nil
	}

	byText := make(map[string]models.Keyword, len(keywords))
	names := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		byText[kw.Keyword] = kw
		names = append(names, kw.Keyword)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	rankings, err := e.rankings.TrackRankings(callCtx, client.SEMrushAPIKey, client.Website, names)
	cancel()
	if err != nil {
		// One batched provider call serves the whole sweep, so a
		// failure here ends this tick; stored state is untouched.
		return fmt.Errorf("failed to fetch rankings: %w", err)
	}

	now := e.nowFunc()

	for _, r := range rankings {
		kw, ok := byText[r.Keyword]
		if !ok {
			continue
		}

		stored := kw.CurrentRank
		if stored == 0 {
			stored = 100
		}
		rankDrop := stored - r.CurrentRank

		if rankDrop >= rankDropThreshold {
			e.triggerReoptimization(ctx, client, &kw, r, rankDrop)
		}

		previous := kw.CurrentRank
		err := e.store.UpsertKeyword(ctx, clientID, r.Keyword, repository.KeywordUpsert{
			CurrentRank:   r.CurrentRank,
			PreviousRank:  &previous,
			SearchVolume:  r.SearchVolume,
			Difficulty:    r.Difficulty,
			LastCheckedAt: now,
		})
		if err != nil {
			e.logger.Error("Failed to update keyword ranking",
				zap.Uint("client_id", clientID),
				zap.String("keyword", r.Keyword),
				zap.Error(err))
		}
	}

	return nil
}

// triggerReoptimization rewrites up to reoptimizePostLimit recent posts
// that mention the dropped keyword. The stored schema markup is kept;
// title, meta description and body are replaced in place. Previously
// published posts are re-published with the rewrite rationale attached.
func (e *AutomationEngine) triggerReoptimization(ctx context.Context, client *models.Client, kw *models.Keyword, current ranking.RankingData, rankDrop int) {
	posts, err := e.store.FindRecentBlogPosts(ctx, client.ID, kw.Keyword, reoptimizePostLimit)
	if err != nil {
		e.logger.Error("Failed to find posts for re-optimization",
			zap.Uint("client_id", client.ID),
			zap.String("keyword", kw.Keyword),
			zap.Error(err))
		return
	}

	targetRank := kw.CurrentRank
	if targetRank == 0 {
		targetRank = defaultTargetRank
	}

	for i := range posts {
		post := &posts[i]

		original := &generator.GeneratedContent{
			Title:           post.Title,
			MetaDescription: post.MetaDescription,
			Content:         post.Content,
			SchemaJSON:      post.SchemaJSON,
			Service:         post.Service,
			Location:        post.Location,
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		rewritten, err := e.generator.Reoptimize(callCtx, original, rankDrop, kw.Keyword, current.CurrentRank, targetRank)
		cancel()
		if err != nil {
			e.logger.Error("Failed to generate re-optimized content",
				zap.Uint("post_id", post.ID),
				zap.String("keyword", kw.Keyword),
				zap.Error(err))
			continue
		}

		post.Title = rewritten.Title
		post.MetaDescription = rewritten.MetaDescription
		post.Content = rewritten.Content
		// SchemaJSON stays as-is unless a future rewrite regenerates it.

		if err := e.store.UpdateBlogPost(ctx, post); err != nil {
			e.logger.Error("Failed to save re-optimized post",
				zap.Uint("post_id", post.ID),
				zap.Error(err))
			continue
		}

		e.logger.Info("Post re-optimized",
			zap.Uint("post_id", post.ID),
			zap.String("keyword", kw.Keyword),
			zap.Int("rank_drop", rankDrop))

		if post.WordpressPostID != "" && client.WordpressConfigured() {
			e.republishToWordpress(ctx, client, post, rewritten)
		}
	}
}

func (e *AutomationEngine) republishToWordpress(ctx context.Context, client *models.Client, post *models.BlogPost, rewritten *generator.ReoptimizedContent) {
	improvements, _ := json.Marshal(rewritten.Improvements)

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	_, err := e.cms.UpdatePost(callCtx, client.WordpressURL, client.WordpressAPIKey, post.WordpressPostID, publisher.PostInput{
		Title:      rewritten.Title,
		Content:    rewritten.Content,
		Excerpt:    rewritten.MetaDescription,
		SchemaJSON: post.SchemaJSON,
		Meta: map[string]string{
			"reoptimization_reason":       rewritten.Reason,
			"reoptimization_improvements": string(improvements),
		},
	})
	if err != nil {
		e.logger.Error("Failed to update WordPress post after re-optimization",
			zap.Uint("post_id", post.ID),
			zap.String("wordpress_post_id", post.WordpressPostID),
			zap.Error(err))
	}
}
