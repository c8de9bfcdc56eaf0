package mutationq

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/laminadb/lamina/internal/db"
)

// fakeStore is a stateful in-memory stand-in for the redis store, enough
// of the command surface for the queue round-trip tests.
type fakeStore struct {
	mu       sync.Mutex
	counters map[string]int64
	hashes   map[string]map[string]string
	zsets    map[string]map[string]float64

	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counters: make(map[string]int64),
		hashes:   make(map[string]map[string]string),
		zsets:    make(map[string]map[string]float64),
	}
}

func (f *fakeStore) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	v, ok := f.counters[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	return []byte(strconv.FormatInt(v, 10)), nil
}

func (f *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return 0, err
	}
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		m, err := f.HGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	delete(f.hashes, key)
	return nil
}

func (f *fakeStore) ZAdd(_ context.Context, key, member string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	z, ok := f.zsets[key]
	if !ok {
		z = make(map[string]float64)
		f.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (f *fakeStore) ZRem(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	for _, m := range members {
		delete(f.zsets[key], m)
	}
	return nil
}

func (f *fakeStore) ZRangeByScore(
	_ context.Context, key, min, max string, offset, count int64,
) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}

	type entry struct {
		member string
		score  float64
	}
	var entries []entry
	for member, score := range f.zsets[key] {
		if inRange(score, min) && inRangeMax(score, max) {
			entries = append(entries, entry{member, score})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	out := make([]string, 0, len(entries))
	for i, e := range entries {
		if int64(i) < offset {
			continue
		}
		if count >= 0 && int64(len(out)) >= count {
			break
		}
		out = append(out, e.member)
	}
	return out, nil
}

func (f *fakeStore) ZRangeByScoreMulti(ctx context.Context, keys []string, min, max string) ([][]string, error) {
	out := make([][]string, len(keys))
	for i, key := range keys {
		members, err := f.ZRangeByScore(ctx, key, min, max, 0, -1)
		if err != nil {
			return nil, err
		}
		out[i] = members
	}
	return out, nil
}

func inRange(score float64, min string) bool {
	switch {
	case min == "-inf":
		return true
	case min[0] == '(':
		v, _ := strconv.ParseFloat(min[1:], 64)
		return score > v
	default:
		v, _ := strconv.ParseFloat(min, 64)
		return score >= v
	}
}

func inRangeMax(score float64, max string) bool {
	switch {
	case max == "+inf":
		return true
	case max[0] == '(':
		v, _ := strconv.ParseFloat(max[1:], 64)
		return score < v
	default:
		v, _ := strconv.ParseFloat(max, 64)
		return score <= v
	}
}
