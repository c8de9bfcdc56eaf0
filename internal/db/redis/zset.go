package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/laminadb/lamina/internal/db"
)

// ZAdd adds or updates a sorted-set member with the given score.
func (s *Store) ZAdd(ctx context.Context, key, member string, score float64) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRem removes members from a sorted set.
func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// ZRangeByScore returns members with scores in the given range, ascending.
// Min and max use Redis range syntax; a negative count returns every member
// from offset onward.
func (s *Store) ZRangeByScore(ctx context.Context, key, min, max string, offset, count int64) ([]string, error) {
	cmd := s.b().Zrangebyscore().Key(key).Min(min).Max(max).Limit(offset, count).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByScore, Err: err}
	}
	return members, nil
}

// ZRangeByScoreMulti runs one range query per key in a single DoMulti round-trip.
func (s *Store) ZRangeByScoreMulti(ctx context.Context, keys []string, min, max string) ([][]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Zrangebyscore().Key(key).Min(min).Max(max).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([][]string, len(results))

	for i, res := range results {
		members, err := res.AsStrSlice()
		if err != nil {
			return nil, fmt.Errorf("ZRangeByScoreMulti key %s: %w", keys[i], err)
		}
		out[i] = members
	}

	return out, nil
}
