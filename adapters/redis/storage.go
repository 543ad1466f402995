package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"scorekit/core"
	"scorekit/leaderboard"
	"scorekit/telemetry"
)

const backendLabel = "redis"

// DefaultKey is where the serialized leaderboard lives.
const DefaultKey = "scorekit:leaderboard"

// Config holds Redis connection configuration
type Config struct {
	UseTLS       bool          `json:"use_tls" env:"SCOREKIT_REDIS_TLS"`
	Host         string        `json:"host" env:"SCOREKIT_REDIS_HOST"`
	Port         int           `json:"port" env:"SCOREKIT_REDIS_PORT"`
	Username     string        `json:"username" env:"SCOREKIT_REDIS_USERNAME"`
	Password     string        `json:"password" env:"SCOREKIT_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"SCOREKIT_REDIS_DB"`
	Key          string        `json:"key" env:"SCOREKIT_REDIS_KEY"`
	PoolSize     int           `json:"pool_size" env:"SCOREKIT_REDIS_POOL_SIZE"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"SCOREKIT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"SCOREKIT_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"SCOREKIT_REDIS_WRITE_TIMEOUT"`
	ProbeTimeout time.Duration `json:"probe_timeout" env:"SCOREKIT_REDIS_PROBE_TIMEOUT"`
	WriteRetries int           `json:"write_retries" env:"SCOREKIT_REDIS_WRITE_RETRIES"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		Key:          DefaultKey,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		ProbeTimeout: 3 * time.Second,
		WriteRetries: 5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Key == "" {
		c.Key = d.Key
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.WriteRetries < 0 {
		c.WriteRetries = 0
	}
	return c
}

// ClientOptions builds go-redis options. This is the only place the password is revealed.
func (c Config) ClientOptions() *redis.Options {
	desc := DescriptorFor(c)
	opts := &redis.Options{
		Addr:         desc.Addr(),
		Password:     desc.Password.Reveal(),
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
	if c.Username != "" {
		opts.Username = c.Username
	}
	if c.UseTLS {
		opts.TLSConfig = &tls.Config{ServerName: c.Host, MinVersion: tls.VersionTLS12}
	}
	return opts
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store keeps the whole leaderboard as one JSON array under cfg.Key.
// It starts unavailable; only Initialize changes that.
type Store struct {
	client    *redis.Client
	cfg       Config
	desc      Descriptor
	logger    *slog.Logger
	available atomic.Bool
}

// New creates a store. No connection is attempted until Initialize.
func New(cfg Config, opts ...Option) *Store {
	cfg = cfg.withDefaults()
	return NewWithClient(redis.NewClient(cfg.ClientOptions()), cfg, opts...)
}

// NewWithClient wraps an existing client (useful for testing); cfg supplies key, limits and display.
func NewWithClient(client *redis.Client, cfg Config, opts ...Option) *Store {
	cfg = cfg.withDefaults()
	s := &Store{client: client, cfg: cfg, desc: DescriptorFor(cfg), logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("store", s.desc)
	return s
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Initialize pings the server within ProbeTimeout and records the outcome.
func (s *Store) Initialize(ctx context.Context) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "redis.ping", attribute.String("db.system", "redis"))
	err := s.client.Ping(ctx).Err()
	telemetry.EndSpan(span, err)

	ok := err == nil
	s.available.Store(ok)
	telemetry.SetStoreAvailable(backendLabel, ok)
	if !ok {
		s.logger.WarnContext(ctx, "redis unreachable, leaderboard disabled", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeUnavailable, started)
		return
	}
	s.logger.InfoContext(ctx, "redis available")
	telemetry.ObserveStoreOp(backendLabel, "initialize", telemetry.OutcomeOK, started)
}

func (s *Store) IsAvailable() bool { return s.available.Load() }

func (s *Store) FetchTop(ctx context.Context) []core.ScoreRecord {
	started := time.Now()
	if !s.available.Load() {
		telemetry.ObserveStoreOp(backendLabel, "fetch", telemetry.OutcomeUnavailable, started)
		return []core.ScoreRecord{}
	}

	ctx, span := telemetry.StartSpan(ctx, "redis.fetch_top", attribute.String("db.system", "redis"))
	records, outcome, err := s.read(ctx, s.client)
	telemetry.EndSpan(span, err)
	telemetry.ObserveStoreOp(backendLabel, "fetch", outcome, started)
	if err != nil {
		s.logger.WarnContext(ctx, "read leaderboard", "error", err)
		return []core.ScoreRecord{}
	}
	return records
}

// Submit merges rec into the stored list inside a WATCH/MULTI/EXEC transaction,
// retrying on conflict up to WriteRetries times.
func (s *Store) Submit(ctx context.Context, rec core.ScoreRecord) bool {
	started := time.Now()
	if !s.available.Load() {
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeUnavailable, started)
		return false
	}
	if err := rec.Validate(); err != nil {
		s.logger.WarnContext(ctx, "rejecting score", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeInvalid, started)
		return false
	}

	ctx, span := telemetry.StartSpan(ctx, "redis.submit",
		attribute.String("db.system", "redis"),
		attribute.String("player.id", string(rec.PlayerID)),
	)
	var err error
	for attempt := 0; attempt <= s.cfg.WriteRetries; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			return s.merge(ctx, tx, rec)
		}, s.cfg.Key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		s.logger.DebugContext(ctx, "leaderboard changed concurrently, retrying", "attempt", attempt+1)
	}
	telemetry.EndSpan(span, err)

	switch {
	case err == nil:
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeOK, started)
		return true
	case errors.Is(err, redis.TxFailedErr):
		s.logger.WarnContext(ctx, "giving up on score after write conflicts", "retries", s.cfg.WriteRetries)
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeConflict, started)
	default:
		s.logger.WarnContext(ctx, "write leaderboard", "error", err)
		telemetry.ObserveStoreOp(backendLabel, "submit", telemetry.OutcomeError, started)
	}
	return false
}

func (s *Store) merge(ctx context.Context, tx *redis.Tx, rec core.ScoreRecord) error {
	current, _, err := s.read(ctx, tx)
	if err != nil {
		return err
	}
	payload, err := core.EncodeCollection(leaderboard.Merge(current, rec, leaderboard.MaxEntries))
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.cfg.Key, payload, 0)
		return nil
	})
	return err
}

// read treats an absent key and an undecodable payload as an empty leaderboard.
func (s *Store) read(ctx context.Context, c redis.Cmdable) ([]core.ScoreRecord, string, error) {
	raw, err := c.Get(ctx, s.cfg.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []core.ScoreRecord{}, telemetry.OutcomeEmpty, nil
	}
	if err != nil {
		return nil, telemetry.OutcomeError, fmt.Errorf("get %s: %w", s.cfg.Key, err)
	}
	records, err := core.DecodeCollection(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding corrupt leaderboard payload", "error", err)
		return []core.ScoreRecord{}, telemetry.OutcomeCorrupt, nil
	}
	return records, telemetry.OutcomeOK, nil
}

// Describe never exposes the password.
func (s *Store) Describe() string { return "Redis (" + s.desc.String() + ")" }

// Descriptor returns the display form of the endpoint.
func (s *Store) Descriptor() Descriptor { return s.desc }
