package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"scorekit/core"
	"scorekit/engine"
	"scorekit/leaderboard"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// RateLimitIdle is how long an unseen client keeps its bucket.
	RateLimitIdle time.Duration
	// ServiceName labels server spans.
	ServiceName string
	// Now stamps submitted scores; defaults to time.Now.
	Now func() time.Time
}

// ScoreSubmission is the POST /scores body.
type ScoreSubmission struct {
	PlayerID          string `json:"playerId"`
	Nickname          string `json:"nickname"`
	Score             int64  `json:"score"`
	Level             int    `json:"level"`
	LinesCleared      int    `json:"linesCleared"`
	SessionDurationMs int64  `json:"sessionDurationMs"`
}

type api struct {
	svc *engine.ScoreService
	now func() time.Time
}

// NewMux builds an http.Handler exposing the leaderboard REST API.
// Routes:
//   - GET  {prefix}/leaderboard[?player=id]
//   - POST {prefix}/scores
//   - GET  {prefix}/healthz
//   - POST {prefix}/store/probe
func NewMux(svc *engine.ScoreService, opts Options) http.Handler {
	a := &api{svc: svc, now: opts.Now}
	if a.now == nil {
		a.now = time.Now
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "scorekit"
	}

	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	router := root
	if p := trimPrefix(opts.PathPrefix); p != "" {
		router = root.PathPrefix(p).Subrouter()
	}
	router.Use(otelmux.Middleware(opts.ServiceName), metricsMiddleware)

	router.HandleFunc("/leaderboard", a.getLeaderboard).Methods(http.MethodGet)
	router.HandleFunc("/scores", a.postScore).Methods(http.MethodPost)
	router.HandleFunc("/healthz", a.healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/store/probe", a.probe).Methods(http.MethodPost)

	var handler http.Handler = root
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst, opts.RateLimitIdle)
	}
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	return handler
}

func (a *api) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	current := core.PlayerID(r.URL.Query().Get("player"))
	rows := leaderboard.Rows(a.svc.TopScores(r.Context()), current)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":   rows,
		"count":     len(rows),
		"available": a.svc.Available(),
	})
}

func (a *api) postScore(w http.ResponseWriter, r *http.Request) {
	var body ScoreSubmission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a score submission", nil)
		return
	}
	player, err := core.NormalizePlayerID(core.PlayerID(body.PlayerID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_player", err.Error(), nil)
		return
	}
	rec, err := core.NewScoreRecord(player, body.Nickname, body.Score, a.now().UTC(),
		body.Level, body.LinesCleared, time.Duration(body.SessionDurationMs)*time.Millisecond)
	if err != nil {
		code := "internal"
		if errors.Is(err, core.ErrInvalidRecord) {
			code = "invalid_record"
		}
		writeError(w, http.StatusBadRequest, code, err.Error(), nil)
		return
	}
	if !a.svc.Submit(r.Context(), rec) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"submitted": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submitted": true})
}

// healthCheck reports the last probe outcome without touching the store.
func (a *api) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "healthy",
		"checks":  map[string]any{"store": "ok"},
		"backend": a.svc.Describe(),
	}
	code := http.StatusOK
	if !a.svc.Available() {
		code = http.StatusServiceUnavailable
		status["status"] = "degraded"
		status["checks"] = map[string]any{"store": "unavailable"}
	}
	writeJSON(w, code, status)
}

func (a *api) probe(w http.ResponseWriter, r *http.Request) {
	ok := a.svc.Reprobe(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"available": ok, "backend": a.svc.Describe()})
}

// Helpers

func trimPrefix(prefix string) string {
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, apiError{Code: code, Message: msg, Details: details})
}
