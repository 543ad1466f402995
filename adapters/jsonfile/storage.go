package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"scorekit/core"
	"scorekit/leaderboard"
	"scorekit/telemetry"
)

const backendLabel = "file"

// Store persists the leaderboard to a single JSON file.
// Writers in one process serialize on mu; separate processes sharing a path are not coordinated.
type Store struct {
	path      string
	mu        sync.Mutex
	logger    *slog.Logger
	available atomic.Bool
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("store", s.Describe())
	return s
}

// Initialize checks that the directory exists (creating it if needed) and any existing file is readable.
func (s *Store) Initialize(ctx context.Context) {
	started := time.Now()
	err := s.probe()
	ok := err == nil
	s.available.Store(ok)
	telemetry.SetStoreAvailable(backendLabel, ok)
	if !ok {
		s.logger.WarnContext(ctx, "leaderboard file unusable", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeUnavailable, started)
		return
	}
	telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeOK, started)
}

func (s *Store) probe() error {
	if s.path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *Store) IsAvailable() bool { return s.available.Load() }

func (s *Store) FetchTop(ctx context.Context) []core.ScoreRecord {
	started := time.Now()
	if !s.available.Load() {
		telemetry.ObserveStoreOp(backendLabel, "fetch", telemetry.OutcomeUnavailable, started)
		return []core.ScoreRecord{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, outcome, err := s.load(ctx)
	telemetry.ObserveStoreOp(backendLabel, "fetch", outcome, started)
	if err != nil {
		s.logger.WarnContext(ctx, "read leaderboard", "error", err)
		return []core.ScoreRecord{}
	}
	return records
}

func (s *Store) Submit(ctx context.Context, rec core.ScoreRecord) bool {
	started := time.Now()
	if !s.available.Load() {
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeUnavailable, started)
		return false
	}
	if err := rec.Validate(); err != nil {
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeInvalid, started)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, _, err := s.load(ctx)
	if err == nil {
		err = s.persist(leaderboard.Merge(current, rec, leaderboard.MaxEntries))
	}
	if err != nil {
		s.logger.WarnContext(ctx, "write leaderboard", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeError, started)
		return false
	}
	telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeOK, started)
	return true
}

func (s *Store) Describe() string { return "File (" + s.path + ")" }

// load treats a missing file and an undecodable file as an empty leaderboard.
func (s *Store) load(ctx context.Context) ([]core.ScoreRecord, string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.ScoreRecord{}, telemetry.OutcomeEmpty, nil
	}
	if err != nil {
		return nil, telemetry.OutcomeError, err
	}
	records, err := core.DecodeCollection(b)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding corrupt leaderboard file", "error", err)
		return []core.ScoreRecord{}, telemetry.OutcomeCorrupt, nil
	}
	return records, telemetry.OutcomeOK, nil
}

func (s *Store) persist(records []core.ScoreRecord) error {
	b, err := core.EncodeCollection(records)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
