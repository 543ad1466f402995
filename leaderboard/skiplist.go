package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"scorekit/core"
)

// A simple skip list keyed by (score desc, seq asc) to achieve O(log n) inserts.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    Entry
	next [maxLevel]*node
}

type SkipList struct {
	mu   sync.RWMutex
	head *node
	lvl  int
	size int
	seq  uint64
	rng  *rand.Rand
}

func NewSkipList() *SkipList {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head: &node{},
		lvl:  1,
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b Entry) bool {
	if a.Record.Score == b.Record.Score {
		return a.Seq < b.Seq
	}
	return a.Record.Score > b.Record.Score // higher score first
}

// Insert adds rec behind every entry with the same score.
func (s *SkipList) Insert(rec core.ScoreRecord) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e := Entry{Seq: s.seq, Record: rec}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.size++
	return e
}

// Truncate drops every entry ranked below position n and returns how many were removed.
func (s *SkipList) Truncate(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if s.size <= n {
		return 0
	}
	// last node kept at each level
	update := [maxLevel]*node{}
	for i := range update {
		update[i] = s.head
	}
	cur := s.head
	for pos := 0; pos < n; pos++ {
		cur = cur.next[0]
		for i := 0; i < s.lvl; i++ {
			if update[i].next[i] == cur {
				update[i] = cur
			}
		}
	}
	for i := 0; i < s.lvl; i++ {
		update[i].next[i] = nil
	}
	removed := s.size - n
	s.size = n
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
	return removed
}

func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, min(n, s.size))
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

var _ Board = (*SkipList)(nil)
