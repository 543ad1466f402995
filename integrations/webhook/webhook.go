package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"scorekit/core"
)

// Sink posts score events to configured HTTP endpoints.
// It is synchronous; register it on an async bus to keep game-over fast.
type Sink struct {
	client    *http.Client
	endpoints []string
	types     map[core.EventType]bool
	headers   http.Header
	logger    *slog.Logger
	failures  atomic.Int64
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithEventTypes limits which events are delivered. The default is score submissions only.
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
}

// WithHeader adds a header to every delivery, e.g. a shared secret.
func WithHeader(k, v string) Option {
	return func(s *Sink) { s.headers.Set(k, v) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client:  &http.Client{Timeout: 2 * time.Second},
		types:   map[core.EventType]bool{core.EventScoreSubmitted: true},
		headers: make(http.Header),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints. Delivery failures are logged and counted.
func (s *Sink) OnEvent(ctx context.Context, e core.Event) {
	if len(s.endpoints) == 0 || !s.types[e.Type] {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("webhook encode failed", "type", e.Type, "error", err)
		return
	}
	for _, ep := range s.endpoints {
		if err := s.post(ctx, ep, body); err != nil {
			s.failures.Add(1)
			s.logger.WarnContext(ctx, "webhook delivery failed", "endpoint", ep, "type", e.Type, "error", err)
		}
	}
}

func (s *Sink) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vals := range s.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Failures is the number of failed deliveries since creation.
func (s *Sink) Failures() int64 { return s.failures.Load() }
