package publisher

import (
	"context"
	"time"
)

// PostInput is a standard CMS blog post.
type PostInput struct {
	Title      string
	Content    string
	Excerpt    string
	SchemaJSON string
	MediaID    string
	// Meta carries auxiliary key/value metadata, e.g. the rationale
	// attached to a re-optimized post.
	Meta map[string]string
}

// PortfolioInput is a portfolio-style CMS entry with structured custom
// fields, used for project-notes uploads.
type PortfolioInput struct {
	Title       string
	Content     string
	Excerpt     string
	SchemaJSON  string
	MediaID     string
	Service     string
	Location    string
	ProjectDate time.Time
}

// ListingPostInput is a local-business-profile style post: a short
// summary with optional hashtags and a call-to-action link.
type ListingPostInput struct {
	Title        string
	Summary      string
	ImageURL     string
	Hashtags     []string
	CallToAction string
}

// PublishResult identifies where content ended up.
type PublishResult struct {
	PostID      string
	URL         string
	PublishedAt time.Time
}

// MediaResult identifies an uploaded media asset.
type MediaResult struct {
	MediaID string
	URL     string
}

// CmsPublisher publishes generated content to a client's CMS. Every
// call takes the client's endpoint and credential so a single publisher
// instance serves all clients.
type CmsPublisher interface {
	PublishPost(ctx context.Context, endpoint, credential string, post PostInput) (*PublishResult, error)
	PublishPortfolioEntry(ctx context.Context, endpoint, credential string, entry PortfolioInput) (*PublishResult, error)
	UpdatePost(ctx context.Context, endpoint, credential, postID string, post PostInput) (*PublishResult, error)
	UploadMedia(ctx context.Context, endpoint, credential string, file []byte, filename, altText string) (*MediaResult, error)
}

// ListingPublisher posts to a client's local-business listing.
type ListingPublisher interface {
	PublishPost(ctx context.Context, businessID, credential string, post ListingPostInput) (*PublishResult, error)
}
