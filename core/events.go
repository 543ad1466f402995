package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventScoreSubmitted EventType = "score_submitted"
	EventScoreDropped   EventType = "score_dropped"
	EventStoreProbed    EventType = "store_probed"
)

// Event represents an immutable domain event.
type Event struct {
	Type      EventType      `json:"type"`
	Time      time.Time      `json:"time"`
	PlayerID  PlayerID       `json:"player_id,omitempty"`
	Nickname  string         `json:"nickname,omitempty"`
	Score     int64          `json:"score,omitempty"`
	Level     int            `json:"level,omitempty"`
	Lines     int            `json:"lines,omitempty"`
	Backend   string         `json:"backend,omitempty"`
	Available bool           `json:"available"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewScoreSubmitted(r ScoreRecord, backend string) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), PlayerID: r.PlayerID, Nickname: r.Nickname,
		Score: r.Score, Level: r.Level, Lines: r.LinesCleared, Backend: backend, Available: true}
}

func NewScoreDropped(r ScoreRecord, backend string, available bool) Event {
	return Event{Type: EventScoreDropped, Time: time.Now().UTC(), PlayerID: r.PlayerID, Nickname: r.Nickname,
		Score: r.Score, Level: r.Level, Lines: r.LinesCleared, Backend: backend, Available: available}
}

func NewStoreProbed(backend string, available bool) Event {
	return Event{Type: EventStoreProbed, Time: time.Now().UTC(), Backend: backend, Available: available}
}
