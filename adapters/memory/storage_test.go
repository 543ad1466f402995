package memory

import (
	"context"
	"testing"
	"time"

	"scorekit/core"
	"scorekit/leaderboard"
)

func TestMemoryStore(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := core.ScoreRecord{PlayerID: "u", Nickname: "U", Score: 5, RecordedAt: time.Now()}

	if s.Submit(ctx, r) {
		t.Fatal("submit before Initialize should fail")
	}
	if len(s.FetchTop(ctx)) != 0 {
		t.Fatal("fetch before Initialize should be empty")
	}

	s.Initialize(ctx)
	if !s.IsAvailable() {
		t.Fatal("expected available")
	}
	if !s.Submit(ctx, r) {
		t.Fatal("submit failed")
	}
	if s.Submit(ctx, core.ScoreRecord{Score: -1}) {
		t.Fatal("invalid record accepted")
	}
	top := s.FetchTop(ctx)
	if len(top) != 1 || !top[0].Equal(r) {
		t.Fatalf("unexpected top: %#v", top)
	}
}

func TestMemoryStoreCapacity(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Initialize(ctx)
	for i := 0; i < leaderboard.MaxEntries+5; i++ {
		s.Submit(ctx, core.ScoreRecord{PlayerID: "p", Score: int64(i)})
	}
	top := s.FetchTop(ctx)
	if len(top) != leaderboard.MaxEntries {
		t.Fatalf("len %d", len(top))
	}
	if top[0].Score != int64(leaderboard.MaxEntries+4) || top[len(top)-1].Score != 5 {
		t.Fatalf("unexpected bounds %d..%d", top[0].Score, top[len(top)-1].Score)
	}
	if s.Describe() != "Memory" {
		t.Fatalf("describe %q", s.Describe())
	}
}
