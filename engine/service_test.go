package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "scorekit/adapters/memory"
	"scorekit/core"
)

type fixedIdentity struct {
	id  core.Identity
	err error
}

func (f fixedIdentity) LoadOrCreate(context.Context) (core.Identity, error) { return f.id, f.err }

// downStore never becomes available.
type downStore struct{ probes int }

func (d *downStore) Initialize(context.Context) { d.probes++ }
func (d *downStore) IsAvailable() bool { return false }
func (d *downStore) FetchTop(context.Context) []core.ScoreRecord { return []core.ScoreRecord{} }
func (d *downStore) Submit(context.Context, core.ScoreRecord) bool { return false }
func (d *downStore) Describe() string { return "Down" }

func newService(store RankingStore) *ScoreService {
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return NewScoreService(store, fixedIdentity{id: core.Identity{ID: "me", Nickname: "SwiftPanda"}},
		NewEventBus(DispatchSync), WithClock(clock))
}

func TestRecordGameSubmitsAndPublishes(t *testing.T) {
	svc := newService(mem.New())
	ctx := context.Background()

	var probed, submitted int
	svc.Subscribe(core.EventStoreProbed, func(ctx context.Context, e core.Event) { probed++ })
	svc.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) {
		submitted++
		assert.Equal(t, core.PlayerID("me"), e.PlayerID)
		assert.Equal(t, int64(1500), e.Score)
	})

	svc.Start(ctx)
	require.True(t, svc.Available())
	assert.Equal(t, 1, probed)

	rec, ok, err := svc.RecordGame(ctx, core.SessionStats{Score: 1500, Level: 6, LinesCleared: 40, Duration: 5 * time.Minute})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SwiftPanda", rec.Nickname)
	assert.Equal(t, 2026, rec.RecordedAt.Year())
	assert.Equal(t, 1, submitted)

	top := svc.TopScores(ctx)
	require.Len(t, top, 1)
	assert.True(t, top[0].Equal(rec))
}

func TestRecordGameRejectsInvalidStats(t *testing.T) {
	svc := newService(mem.New())
	svc.Start(context.Background())

	_, ok, err := svc.RecordGame(context.Background(), core.SessionStats{Score: -10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidRecord))
	assert.False(t, ok)
	assert.Empty(t, svc.TopScores(context.Background()))
}

func TestRecordGameIdentityFailure(t *testing.T) {
	svc := NewScoreService(mem.New(), fixedIdentity{err: errors.New("disk gone")}, NewEventBus(DispatchSync))
	_, _, err := svc.RecordGame(context.Background(), core.SessionStats{Score: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load identity")
}

func TestUnavailableStoreDegradesQuietly(t *testing.T) {
	store := &downStore{}
	svc := newService(store)
	ctx := context.Background()

	var dropped []core.Event
	svc.Subscribe(core.EventScoreDropped, func(ctx context.Context, e core.Event) { dropped = append(dropped, e) })

	svc.Start(ctx)
	assert.False(t, svc.Available())

	_, ok, err := svc.RecordGame(ctx, core.SessionStats{Score: 10})
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, dropped, 1)
	assert.False(t, dropped[0].Available)
	assert.Equal(t, "Down", dropped[0].Backend)

	assert.Empty(t, svc.Standings(ctx))
	assert.False(t, svc.Reprobe(ctx))
	assert.Equal(t, 2, store.probes)
}

func TestStandingsFlagsLocalPlayer(t *testing.T) {
	svc := newService(mem.New())
	ctx := context.Background()
	svc.Start(ctx)

	other, err := core.NewScoreRecord("other", "BoldFox", 3000, time.Now(), 9, 80, time.Minute)
	require.NoError(t, err)
	require.True(t, svc.Submit(ctx, other))
	_, ok, err := svc.RecordGame(ctx, core.SessionStats{Score: 100})
	require.NoError(t, err)
	require.True(t, ok)

	rows := svc.Standings(ctx)
	require.Len(t, rows, 2)
	assert.Equal(t, core.PlayerID("other"), rows[0].PlayerID)
	assert.False(t, rows[0].Current)
	assert.True(t, rows[1].Current)
	assert.Equal(t, 2, rows[1].Rank)
}
