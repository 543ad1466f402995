package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"scorekit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(ctx context.Context, e core.Event)
}

// DAU tracks daily active players, counting anyone who finished a game that day
// whether or not the score was persisted.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.PlayerID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.PlayerID]struct{}{}} }

func (d *DAU) OnEvent(_ context.Context, e core.Event) {
	if e.PlayerID == "" || (e.Type != core.EventScoreSubmitted && e.Type != core.EventScoreDropped) {
		return
	}
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.PlayerID]struct{}{}
		d.days[day] = m
	}
	m[e.PlayerID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// PlayerSummary aggregates one player's activity.
type PlayerSummary struct {
	PlayerID   core.PlayerID `json:"player_id"`
	Nickname   string        `json:"nickname"`
	Games      int           `json:"games"`
	Dropped    int           `json:"dropped"`
	BestScore  int64         `json:"best_score"`
	TotalLines int64         `json:"total_lines"`
	LastPlayed time.Time     `json:"last_played"`
}

// PlayerStats keeps per-player totals for every recorded game, including the ones the
// ranking store could not accept.
type PlayerStats struct {
	mu      sync.RWMutex
	players map[core.PlayerID]*PlayerSummary
}

func NewPlayerStats() *PlayerStats {
	return &PlayerStats{players: map[core.PlayerID]*PlayerSummary{}}
}

func (p *PlayerStats) OnEvent(_ context.Context, e core.Event) {
	if e.Type != core.EventScoreSubmitted && e.Type != core.EventScoreDropped {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.players[e.PlayerID]
	if s == nil {
		s = &PlayerSummary{PlayerID: e.PlayerID}
		p.players[e.PlayerID] = s
	}
	if e.Nickname != "" {
		s.Nickname = e.Nickname
	}
	s.Games++
	if e.Type == core.EventScoreDropped {
		s.Dropped++
	}
	if e.Score > s.BestScore {
		s.BestScore = e.Score
	}
	s.TotalLines += int64(e.Lines)
	if e.Time.After(s.LastPlayed) {
		s.LastPlayed = e.Time
	}
}

// Get returns a copy of the summary for id.
func (p *PlayerStats) Get(id core.PlayerID) (PlayerSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.players[id]
	if !ok {
		return PlayerSummary{}, false
	}
	return *s, true
}

// Snapshot lists all players by best score, highest first.
func (p *PlayerStats) Snapshot() []PlayerSummary {
	p.mu.RLock()
	out := make([]PlayerSummary, 0, len(p.players))
	for _, s := range p.players {
		out = append(out, *s)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestScore != out[j].BestScore {
			return out[i].BestScore > out[j].BestScore
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
