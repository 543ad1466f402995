package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ScoreSubmission is the body of POST /scores.
type ScoreSubmission struct {
	PlayerID        string        `json:"playerId"`
	Nickname        string        `json:"nickname"`
	Score           int64         `json:"score"`
	Level           int           `json:"level"`
	LinesCleared    int           `json:"linesCleared"`
	SessionDuration time.Duration `json:"-"`
}

func (s ScoreSubmission) MarshalJSON() ([]byte, error) {
	type wire ScoreSubmission
	return json.Marshal(struct {
		wire
		SessionDurationMs int64 `json:"sessionDurationMs"`
	}{wire(s), s.SessionDuration.Milliseconds()})
}

// LeaderboardRow mirrors one entry of GET /leaderboard.
type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
	Level    int    `json:"level"`
	Lines    int    `json:"lines"`
	Date     string `json:"date"`
	Current  bool   `json:"current"`
}

// Leaderboard is the GET /leaderboard response.
type Leaderboard struct {
	Entries   []LeaderboardRow `json:"entries"`
	Count     int              `json:"count"`
	Available bool             `json:"available"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Backend string            `json:"backend"`
}

func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }

// ProbeResult is the POST /store/probe response.
type ProbeResult struct {
	Available bool   `json:"available"`
	Backend   string `json:"backend"`
}

// APIError is the server's JSON error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scorekit api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// decodeJSON decodes a success body into target. Status codes listed in accept are treated
// as success as well; anything else >= 400 becomes an *APIError.
func decodeJSON(resp *http.Response, target any, accept ...int) error {
	if resp.StatusCode >= http.StatusBadRequest && !contains(accept, resp.StatusCode) {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "http_error"
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// ErrEmptyPlayerID is returned when player id is empty.
var ErrEmptyPlayerID = errors.New("player id is required")
