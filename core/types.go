package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord is returned when a score record fails validation.
var ErrInvalidRecord = errors.New("invalid score record")

// PlayerID identifies the player a score belongs to. It is opaque to the ranking
// engine and never checked for uniqueness.
type PlayerID string

// Identity is the persisted player identity supplied by the host application.
type Identity struct {
	ID       PlayerID `json:"id"`
	Nickname string   `json:"nickname"`
}

// SessionStats are the figures of a finished game session.
type SessionStats struct {
	Score        int64
	Level        int
	LinesCleared int
	Duration     time.Duration
}

// ScoreRecord is one completed-game result eligible for ranking.
// Records are values: build them with NewScoreRecord and never mutate a stored one.
type ScoreRecord struct {
	PlayerID        PlayerID
	Nickname        string
	Score           int64
	RecordedAt      time.Time
	Level           int
	LinesCleared    int
	SessionDuration time.Duration
}

// NewScoreRecord builds a validated record. The session duration is truncated to whole
// milliseconds, the precision it is persisted with.
func NewScoreRecord(player PlayerID, nickname string, score int64, recordedAt time.Time, level, lines int, duration time.Duration) (ScoreRecord, error) {
	r := ScoreRecord{
		PlayerID:        player,
		Nickname:        nickname,
		Score:           score,
		RecordedAt:      recordedAt,
		Level:           level,
		LinesCleared:    lines,
		SessionDuration: duration,
	}
	if err := r.Validate(); err != nil {
		return ScoreRecord{}, err
	}
	r.SessionDuration = duration.Truncate(time.Millisecond)
	return r, nil
}

// NewScoreRecordFromSession combines an identity and the stats of a finished session.
func NewScoreRecordFromSession(id Identity, stats SessionStats, at time.Time) (ScoreRecord, error) {
	return NewScoreRecord(id.ID, id.Nickname, stats.Score, at, stats.Level, stats.LinesCleared, stats.Duration)
}

// Validate reports every negative counter on the record.
func (r ScoreRecord) Validate() error {
	var errs []string
	if r.Score < 0 {
		errs = append(errs, "score must be >= 0")
	}
	if r.Level < 0 {
		errs = append(errs, "level must be >= 0")
	}
	if r.LinesCleared < 0 {
		errs = append(errs, "lines cleared must be >= 0")
	}
	if r.SessionDuration < 0 {
		errs = append(errs, "session duration must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(errs, "; "))
	}
	return nil
}

// Equal compares two records field by field.
func (r ScoreRecord) Equal(o ScoreRecord) bool {
	return r.PlayerID == o.PlayerID &&
		r.Nickname == o.Nickname &&
		r.Score == o.Score &&
		r.RecordedAt.Equal(o.RecordedAt) &&
		r.Level == o.Level &&
		r.LinesCleared == o.LinesCleared &&
		r.SessionDuration == o.SessionDuration
}

// recordJSON is the persisted shape shared by every backend.
type recordJSON struct {
	PlayerID        PlayerID  `json:"playerId"`
	Nickname        string    `json:"nickname"`
	Score           int64     `json:"score"`
	RecordedAt      time.Time `json:"recordedAt"`
	Level           int       `json:"level"`
	LinesCleared    int       `json:"linesCleared"`
	SessionDuration int64     `json:"sessionDuration"` // milliseconds
}

func (r ScoreRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		PlayerID:        r.PlayerID,
		Nickname:        r.Nickname,
		Score:           r.Score,
		RecordedAt:      r.RecordedAt.UTC(),
		Level:           r.Level,
		LinesCleared:    r.LinesCleared,
		SessionDuration: r.SessionDuration.Milliseconds(),
	})
}

// UnmarshalJSON rejects records that would fail Validate, so a payload holding one is
// treated as corrupt as a whole.
func (r *ScoreRecord) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rec, err := NewScoreRecord(raw.PlayerID, raw.Nickname, raw.Score, raw.RecordedAt, raw.Level, raw.LinesCleared, time.Duration(raw.SessionDuration)*time.Millisecond)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// EncodeCollection serializes a ranked collection. A nil slice encodes as [].
func EncodeCollection(records []ScoreRecord) ([]byte, error) {
	if records == nil {
		records = []ScoreRecord{}
	}
	return json.Marshal(records)
}

// DecodeCollection parses a serialized ranked collection. A JSON null decodes as empty.
func DecodeCollection(b []byte) ([]ScoreRecord, error) {
	var out []ScoreRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ScoreRecord{}
	}
	return out, nil
}

// NormalizePlayerID trims surrounding whitespace and rejects empty identifiers.
func NormalizePlayerID(id PlayerID) (PlayerID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty player id")
	}
	return PlayerID(s), nil
}
