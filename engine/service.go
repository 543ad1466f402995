package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scorekit/core"
	"scorekit/leaderboard"
)

// ScoreService joins the identity provider and the ranking store into the game-over
// and leaderboard paths of the host application.
type ScoreService struct {
	store    RankingStore
	identity IdentityProvider
	bus      *EventBus
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a ScoreService.
type ServiceOption func(*ScoreService)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *ScoreService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ScoreService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScoreService(store RankingStore, identity IdentityProvider, bus *EventBus, opts ...ServiceOption) *ScoreService {
	if store == nil || identity == nil || bus == nil {
		panic("NewScoreService requires non-nil store, identity, and bus")
	}
	s := &ScoreService{
		store:    store,
		identity: identity,
		bus:      bus,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe convenience method.
func (s *ScoreService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// Start probes the store once. The outcome is only observable through Available.
func (s *ScoreService) Start(ctx context.Context) {
	s.probe(ctx)
}

// Reprobe re-runs the liveness probe, the only way out of an outage.
func (s *ScoreService) Reprobe(ctx context.Context) bool {
	return s.probe(ctx)
}

func (s *ScoreService) probe(ctx context.Context) bool {
	s.store.Initialize(ctx)
	ok := s.store.IsAvailable()
	s.logger.Info("ranking store probed", "backend", s.store.Describe(), "available", ok)
	s.bus.Publish(ctx, core.NewStoreProbed(s.store.Describe(), ok))
	return ok
}

// Available reports the last probe outcome.
func (s *ScoreService) Available() bool { return s.store.IsAvailable() }

// Describe returns the store's masked diagnostic name.
func (s *ScoreService) Describe() string { return s.store.Describe() }

// RecordGame builds a record for the local player from a finished session and submits
// it. Invalid stats are the only error; an unreachable store yields (record, false, nil).
func (s *ScoreService) RecordGame(ctx context.Context, stats core.SessionStats) (core.ScoreRecord, bool, error) {
	id, err := s.identity.LoadOrCreate(ctx)
	if err != nil {
		return core.ScoreRecord{}, false, fmt.Errorf("load identity: %w", err)
	}
	rec, err := core.NewScoreRecordFromSession(id, stats, s.now())
	if err != nil {
		return core.ScoreRecord{}, false, err
	}
	return rec, s.Submit(ctx, rec), nil
}

// Submit forwards a prebuilt record to the store and publishes the outcome.
func (s *ScoreService) Submit(ctx context.Context, rec core.ScoreRecord) bool {
	ok := s.store.Submit(ctx, rec)
	if ok {
		s.bus.Publish(ctx, core.NewScoreSubmitted(rec, s.store.Describe()))
		return true
	}
	s.logger.Warn("score not persisted", "player_id", rec.PlayerID, "score", rec.Score, "available", s.store.IsAvailable())
	s.bus.Publish(ctx, core.NewScoreDropped(rec, s.store.Describe(), s.store.IsAvailable()))
	return false
}

// TopScores returns the ranked collection, possibly empty.
func (s *ScoreService) TopScores(ctx context.Context) []core.ScoreRecord {
	return s.store.FetchTop(ctx)
}

// Standings returns display rows with the local player's entries flagged.
func (s *ScoreService) Standings(ctx context.Context) []leaderboard.Row {
	var current core.PlayerID
	if id, err := s.identity.LoadOrCreate(ctx); err == nil {
		current = id.ID
	}
	return leaderboard.Rows(s.store.FetchTop(ctx), current)
}

func (s *ScoreService) Close() { s.bus.Close() }
