// Package offline provides a ranking store that is never available. It lets a build
// run without any leaderboard backend while keeping the same call sites.
package offline

import (
	"context"

	"scorekit/core"
)

type Store struct{}

func New() *Store { return &Store{} }

func (Store) Initialize(context.Context) {}

func (Store) IsAvailable() bool { return false }

func (Store) FetchTop(context.Context) []core.ScoreRecord { return []core.ScoreRecord{} }

func (Store) Submit(context.Context, core.ScoreRecord) bool { return false }

func (Store) Describe() string { return "Offline" }
