package repository

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	model "github.com/okian/tally/internal/domain/model"
	types "github.com/okian/tally/internal/domain/types"
	"github.com/okian/tally/pkg/metrics"
)

const treapStore = "treap"

// Treap-based, in-memory RecordsStore.
//
// Ordering follows types.Less, so an in-order walk yields the leaderboard
// from best to worst and subtree sizes give a player's rank in O(log n).

type node struct {
	rec   types.Record
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, rec types.Record, prio uint64) *node {
	if n == nil {
		return &node{rec: rec, prio: prio, size: 1}
	}
	if types.Less(rec, n.rec) {
		n.left = insert(n.left, rec, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, rec, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, rec types.Record) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.rec.Name == rec.Name:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, rec)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, rec)
		}
	case types.Less(rec, n.rec):
		n.left = deleteNode(n.left, rec)
	default:
		n.right = deleteNode(n.right, rec)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order index of rec.
func position(n *node, rec types.Record) int {
	pos := 0
	for n != nil {
		switch {
		case n.rec.Name == rec.Name:
			return pos + nsize(n.left) + 1
		case types.Less(rec, n.rec):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit records in rank order.
func collectTopN(n *node, limit int, out *[]types.Record) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.rec)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore keeps player records in memory.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byName map[string]types.Record

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapStore constructs the store and starts its metrics updater, which
// stops on ctx cancellation or Close.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byName:                make(map[string]types.Record),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdatePlayerRecords(s.Count(ctx))
			}
		}
	}()
}

// Close stops the background updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func recordKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// resultKeys normalizes every name of one result, failing on the first blank.
func resultKeys(players []string) ([]string, error) {
	keys := make([]string, len(players))
	for i, name := range players {
		keys[i] = recordKey(name)
		if keys[i] == "" {
			return nil, &model.ValidationError{Field: "players", Reason: "names are required"}
		}
	}
	return keys, nil
}

// RecordResult re-inserts the player at their new position in O(log n).
func (s *TreapStore) RecordResult(_ context.Context, name string, won bool) error {
	defer observe(treapStore, "record_result", time.Now())
	key := recordKey(name)
	if key == "" {
		return &model.ValidationError{Field: "name", Reason: "is required"}
	}

	s.mu.Lock()
	s.bump(key, name, won)
	s.mu.Unlock()
	return nil
}

// RecordResults counts one game for every player and a win for winner under a
// single lock. Nothing is applied when any name is blank.
func (s *TreapStore) RecordResults(_ context.Context, players []string, winner string) error {
	defer observe(treapStore, "record_results", time.Now())
	keys, err := resultKeys(players)
	if err != nil {
		return err
	}
	win := recordKey(winner)

	s.mu.Lock()
	for i, key := range keys {
		s.bump(key, players[i], key == win)
	}
	s.mu.Unlock()
	return nil
}

// bump must be called with mu held.
func (s *TreapStore) bump(key, name string, won bool) {
	rec, ok := s.byName[key]
	if ok {
		s.root = deleteNode(s.root, rec)
	} else {
		rec = types.Record{Name: strings.TrimSpace(name)}
	}
	rec.GamesPlayed++
	if won {
		rec.GamesWon++
	}
	s.byName[key] = rec
	s.root = insert(s.root, rec, rand.Uint64()) //nolint:gosec // treap priority, not security sensitive
}

// Rank returns the record and its 1-based rank.
func (s *TreapStore) Rank(_ context.Context, name string) (types.Record, error) {
	defer observe(treapStore, "rank", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byName[recordKey(name)]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Record{}, model.NotFound("player", name)
	}
	rec.Rank = position(s.root, rec)
	return rec, nil
}

// TopN returns the best n records.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Record, error) {
	defer observe(treapStore, "top_n", time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Record, 0, min(n, len(s.byName)))
	collectTopN(s.root, n, &out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Count returns the number of players.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}
