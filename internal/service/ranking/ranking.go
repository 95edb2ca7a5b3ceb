package ranking

import "context"

// RankingData is one keyword's position snapshot as reported by the
// ranking provider. A zero CurrentRank means the domain does not rank
// for the keyword.
type RankingData struct {
	Keyword      string
	CurrentRank  int
	SearchVolume int
	Difficulty   int
}

// Provider returns current search-rank data for a domain.
type Provider interface {
	// TrackRankings fetches positions for an explicit keyword set in
	// one batched call.
	TrackRankings(ctx context.Context, apiKey, domain string, keywords []string) ([]RankingData, error)
	// FetchDomainKeywords lists the keywords the domain currently
	// ranks for, used to seed and refresh the tracked set.
	FetchDomainKeywords(ctx context.Context, apiKey, domain string) ([]RankingData, error)
}
