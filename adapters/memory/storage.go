package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"scorekit/core"
	"scorekit/leaderboard"
)

// Store is an in-process ranking store backed by a skip list.
type Store struct {
	mu        sync.Mutex
	board     *leaderboard.SkipList
	available atomic.Bool
}

func New() *Store { return &Store{board: leaderboard.NewSkipList()} }

// Initialize marks the store available; there is nothing to probe.
func (s *Store) Initialize(context.Context) { s.available.Store(true) }

func (s *Store) IsAvailable() bool { return s.available.Load() }

func (s *Store) FetchTop(context.Context) []core.ScoreRecord {
	if !s.available.Load() {
		return []core.ScoreRecord{}
	}
	entries := s.board.TopN(leaderboard.MaxEntries)
	out := make([]core.ScoreRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Record)
	}
	return out
}

func (s *Store) Submit(_ context.Context, rec core.ScoreRecord) bool {
	if !s.available.Load() || rec.Validate() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Insert(rec)
	s.board.Truncate(leaderboard.MaxEntries)
	return true
}

func (s *Store) Describe() string { return "Memory" }

var _ interface {
	Initialize(context.Context)
	IsAvailable() bool
	FetchTop(context.Context) []core.ScoreRecord
	Submit(context.Context, core.ScoreRecord) bool
	Describe() string
} = (*Store)(nil)
