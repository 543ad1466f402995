package engine

import (
	"context"

	"scorekit/core"
)

// RankingStore persists the ranked collection of scores. The application runs with
// exactly one implementation at a time.
//
// Availability is decided by Initialize alone: a store that failed its probe stays
// unavailable until Initialize is called again. Backend failures never surface as
// errors; FetchTop degrades to an empty slice and Submit to false.
type RankingStore interface {
	// Initialize runs a bounded liveness probe and records its outcome. Idempotent.
	Initialize(ctx context.Context)
	// IsAvailable reports the outcome of the last Initialize.
	IsAvailable() bool
	// FetchTop returns up to leaderboard.MaxEntries records, highest score first.
	FetchTop(ctx context.Context) []core.ScoreRecord
	// Submit merges rec into the ranked collection and reports whether it was written.
	Submit(ctx context.Context, rec core.ScoreRecord) bool
	// Describe names the backend and its target with secrets masked.
	Describe() string
}

// IdentityProvider supplies the local player's persisted identity.
type IdentityProvider interface {
	LoadOrCreate(ctx context.Context) (core.Identity, error)
}
