// Package sqlx stores the leaderboard in a relational table through jmoiron/sqlx.
// Postgres (lib/pq) and MySQL (go-sql-driver/mysql) are supported.
package sqlx

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"scorekit/core"
	"scorekit/leaderboard"
	"scorekit/telemetry"
)

const backendLabel = "sql"

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

type Config struct {
	Driver       string        `json:"driver" env:"SCOREKIT_SQL_DRIVER"`
	DSN          string        `json:"dsn" env:"SCOREKIT_SQL_DSN"`
	MaxOpenConns int           `json:"max_open_conns" env:"SCOREKIT_SQL_MAX_OPEN_CONNS"`
	ProbeTimeout time.Duration `json:"probe_timeout" env:"SCOREKIT_SQL_PROBE_TIMEOUT"`
}

func DefaultConfig() Config {
	return Config{Driver: string(DriverPostgres), MaxOpenConns: 10, ProbeTimeout: 3 * time.Second}
}

var schema = map[Driver][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS score_records (
			id BIGSERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			nickname TEXT NOT NULL,
			score BIGINT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			level INTEGER NOT NULL,
			lines_cleared INTEGER NOT NULL,
			session_duration_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS score_records_rank_idx ON score_records (score DESC, id ASC)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS score_records (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL,
			nickname VARCHAR(128) NOT NULL,
			score BIGINT NOT NULL,
			recorded_at DATETIME(6) NOT NULL,
			level INT NOT NULL,
			lines_cleared INT NOT NULL,
			session_duration_ms BIGINT NOT NULL,
			INDEX score_records_rank_idx (score DESC, id ASC)
		)`,
	},
}

const (
	selectTop = `SELECT id, player_id, nickname, score, recorded_at, level, lines_cleared, session_duration_ms
		FROM score_records ORDER BY score DESC, id ASC LIMIT ?`
	insertRecord = `INSERT INTO score_records
		(player_id, nickname, score, recorded_at, level, lines_cleared, session_duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectRankedIDs = `SELECT id FROM score_records ORDER BY score DESC, id ASC`
	deleteIDs       = `DELETE FROM score_records WHERE id IN (?)`
)

type scoreRow struct {
	ID                int64     `db:"id"`
	PlayerID          string    `db:"player_id"`
	Nickname          string    `db:"nickname"`
	Score             int64     `db:"score"`
	RecordedAt        time.Time `db:"recorded_at"`
	Level             int       `db:"level"`
	LinesCleared      int       `db:"lines_cleared"`
	SessionDurationMS int64     `db:"session_duration_ms"`
}

func (r scoreRow) record() (core.ScoreRecord, error) {
	return core.NewScoreRecord(core.PlayerID(r.PlayerID), r.Nickname, r.Score, r.RecordedAt,
		r.Level, r.LinesCleared, time.Duration(r.SessionDurationMS)*time.Millisecond)
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProbeTimeout bounds the ping and schema setup in Initialize.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// Store keeps at most leaderboard.MaxEntries rows in score_records.
type Store struct {
	db           *sqlx.DB
	driver       Driver
	display      string
	probeTimeout time.Duration
	logger       *slog.Logger
	available    atomic.Bool
}

// New opens a handle; no connection is made until Initialize.
func New(cfg Config, opts ...Option) (*Store, error) {
	driver := Driver(cfg.Driver)
	if _, ok := schema[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	dsn, err := normalizeDSN(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	db, err := sqlx.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ProbeTimeout > 0 {
		opts = append([]Option{WithProbeTimeout(cfg.ProbeTimeout)}, opts...)
	}
	s := NewWithDB(db, driver, opts...)
	s.display = MaskDSN(driver, cfg.DSN)
	return s, nil
}

// NewWithDB wraps an existing handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver, opts ...Option) *Store {
	s := &Store{db: db, driver: driver, display: string(driver), probeTimeout: 3 * time.Second, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

// Initialize pings the database and ensures the table exists.
func (s *Store) Initialize(ctx context.Context) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "sql.initialize", attribute.String("db.system", string(s.driver)))
	err := s.db.PingContext(ctx)
	if err == nil {
		err = s.ensureSchema(ctx)
	}
	telemetry.EndSpan(span, err)

	ok := err == nil
	s.available.Store(ok)
	telemetry.SetStoreAvailable(backendLabel, ok)
	if !ok {
		s.logger.WarnContext(ctx, "database unreachable, leaderboard disabled", "store", s.Describe(), "error", err)
		telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeUnavailable, started)
		return
	}
	telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeOK, started)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) IsAvailable() bool { return s.available.Load() }

func (s *Store) FetchTop(ctx context.Context) []core.ScoreRecord {
	started := time.Now()
	if !s.available.Load() {
		telemetry.ObserveStoreOp(backendLabel, "fetch", telemetry.OutcomeUnavailable, started)
		return []core.ScoreRecord{}
	}

	ctx, span := telemetry.StartSpan(ctx, "sql.fetch_top", attribute.String("db.system", string(s.driver)))
	var rows []scoreRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectTop), leaderboard.MaxEntries)
	telemetry.EndSpan(span, err)
	if err != nil {
		s.logger.WarnContext(ctx, "read leaderboard", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "fetch", telemetry.OutcomeError, started)
		return []core.ScoreRecord{}
	}

	outcome := telemetry.OutcomeOK
	out := make([]core.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping invalid row", "id", row.ID, "error", err)
			outcome = telemetry.OutcomeCorrupt
			continue
		}
		out = append(out, rec)
	}
	telemetry.ObserveStoreOp(backendLabel, "fetch", outcome, started)
	return out
}

// Submit inserts rec and trims the table back to MaxEntries in one transaction.
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

	ctx, span := telemetry.StartSpan(ctx, "sql.submit", attribute.String("db.system", string(s.driver)))
	err := s.submit(ctx, rec)
	telemetry.EndSpan(span, err)
	if err != nil {
		s.logger.WarnContext(ctx, "write leaderboard", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeError, started)
		return false
	}
	telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeOK, started)
	return true
}

func (s *Store) submit(ctx context.Context, rec core.ScoreRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(insertRecord),
		string(rec.PlayerID), rec.Nickname, rec.Score, rec.RecordedAt.UTC(),
		rec.Level, rec.LinesCleared, rec.SessionDuration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	var ids []int64
	if err := tx.SelectContext(ctx, &ids, selectRankedIDs); err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	if len(ids) > leaderboard.MaxEntries {
		query, args, err := sqlx.In(deleteIDs, ids[leaderboard.MaxEntries:])
		if err != nil {
			return fmt.Errorf("build trim: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("trim: %w", err)
		}
	}
	return tx.Commit()
}

// Describe never exposes the password.
func (s *Store) Describe() string { return "SQL (" + s.display + ")" }
