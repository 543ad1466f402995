package leaderboard

import (
	"sort"

	"scorekit/core"
)

// MaxEntries is the capacity of every ranked collection.
const MaxEntries = 10

// Entry is a record positioned in an ordered index.
type Entry struct {
	Seq    uint64
	Record core.ScoreRecord
}

// Board abstracts an ordered, capacity-bounded score index.
type Board interface {
	Insert(rec core.ScoreRecord) Entry
	TopN(n int) []Entry
	Truncate(n int) int
	Len() int
}

// Merge appends rec to current, orders the result by score descending and keeps at
// most limit records. Equal scores keep their insertion order, so an earlier record
// outranks a later one. current is not modified.
func Merge(current []core.ScoreRecord, rec core.ScoreRecord, limit int) []core.ScoreRecord {
	out := make([]core.ScoreRecord, 0, len(current)+1)
	out = append(out, current...)
	out = append(out, rec)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Row is a display projection of a ranked record.
type Row struct {
	Rank     int           `json:"rank"`
	PlayerID core.PlayerID `json:"player_id"`
	Nickname string        `json:"nickname"`
	Score    int64         `json:"score"`
	Level    int           `json:"level"`
	Lines    int           `json:"lines"`
	Date     string        `json:"date"`
	Current  bool          `json:"current"`
}

// Rows numbers records from 1 and flags the ones belonging to current.
func Rows(records []core.ScoreRecord, current core.PlayerID) []Row {
	rows := make([]Row, 0, len(records))
	for i, r := range records {
		rows = append(rows, Row{
			Rank:     i + 1,
			PlayerID: r.PlayerID,
			Nickname: r.Nickname,
			Score:    r.Score,
			Level:    r.Level,
			Lines:    r.LinesCleared,
			Date:     r.RecordedAt.UTC().Format("2006-01-02"),
			Current:  current != "" && r.PlayerID == current,
		})
	}
	return rows
}
