package generator

import "context"

// GeneratedContent is the artifact bundle produced for one upload.
type GeneratedContent struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Content         string   `json:"content"`
	SchemaJSON      string   `json:"schemaJson"`
	Service         string   `json:"service,omitempty"`
	Location        string   `json:"location,omitempty"`
	Hashtags        []string `json:"hashtags,omitempty"`
	GBPSummary      string   `json:"gbpSummary,omitempty"`
}

// ReoptimizedContent is the artifact bundle produced when existing
// content is rewritten after a ranking drop.
type ReoptimizedContent struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Content         string   `json:"content"`
	Improvements    []string `json:"improvements"`
	Reason          string   `json:"reason"`
}

// Generator turns upload descriptions into SEO artifacts. Failures are
// fatal to the workflow that requested the generation.
type Generator interface {
	Generate(ctx context.Context, uploadType, description, service, location string) (*GeneratedContent, error)
	Reoptimize(ctx context.Context, original *GeneratedContent, rankDrop int, keyword string, currentRank, targetRank int) (*ReoptimizedContent, error)
}
