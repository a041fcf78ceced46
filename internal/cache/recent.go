// Package cache keeps a short window of each twin's most recent conversation
// turns in Redis so chat requests can build LLM context without reading the
// history table. The database stays the source of truth: a missing or
// unreachable cache only costs a query.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/echome-x/internal/llm"
)

// RecentTurns is a per-twin capped list of turns.
// Keys are namespaced as "{prefix}:turns:{twinID}".
type RecentTurns struct {
	rdb    redis.Cmdable
	prefix string
	window int
	ttl    time.Duration
}

// Config configures RecentTurns.
type Config struct {
	Prefix string        // key prefix, default "echome"
	Window int           // turns kept per twin, default 6
	TTL    time.Duration // idle expiry, 0 = no expiry
}

// NewRecentTurns creates a window cache on top of rdb.
func NewRecentTurns(rdb redis.Cmdable, cfg Config) *RecentTurns {
	if cfg.Prefix == "" {
		cfg.Prefix = "echome"
	}
	if cfg.Window <= 0 {
		cfg.Window = 6
	}
	return &RecentTurns{rdb: rdb, prefix: cfg.Prefix, window: cfg.Window, ttl: cfg.TTL}
}

type entry struct {
	U string `json:"u"`
	A string `json:"a"`
}

func (c *RecentTurns) key(twinID string) string {
	return fmt.Sprintf("%s:turns:%s", c.prefix, twinID)
}

// Get returns the cached window in chronological order. ok is false on a
// cache miss.
func (c *RecentTurns) Get(ctx context.Context, twinID string) (turns []llm.Turn, ok bool, err error) {
	items, err := c.rdb.LRange(ctx, c.key(twinID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	out := make([]llm.Turn, 0, len(items))
	for _, raw := range items {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, false, fmt.Errorf("decode cached turn: %w", err)
		}
		out = append(out, llm.Turn{User: e.U, Assistant: e.A})
	}
	return out, true, nil
}

// Fill replaces the cached window with turns, keeping the newest Window.
func (c *RecentTurns) Fill(ctx context.Context, twinID string, turns []llm.Turn) error {
	if len(turns) > c.window {
		turns = turns[len(turns)-c.window:]
	}
	vals := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(entry{U: t.User, A: t.Assistant})
		if err != nil {
			return err
		}
		vals = append(vals, string(b))
	}
	k := c.key(twinID)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		if len(vals) > 0 {
			p.RPush(ctx, k, vals...)
			if c.ttl > 0 {
				p.Expire(ctx, k, c.ttl)
			}
		}
		return nil
	})
	return err
}

// Push appends a turn to an existing window and trims it. A twin with no
// cached window is left alone so a partial list is never mistaken for the
// full one; the next Get misses and the caller refills from the database.
func (c *RecentTurns) Push(ctx context.Context, twinID string, t llm.Turn) error {
	b, err := json.Marshal(entry{U: t.User, A: t.Assistant})
	if err != nil {
		return err
	}
	k := c.key(twinID)
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPushX(ctx, k, string(b))
		p.LTrim(ctx, k, int64(-c.window), -1)
		if c.ttl > 0 {
			p.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	return err
}

// Forget drops the cached window for twinID.
func (c *RecentTurns) Forget(ctx context.Context, twinID string) error {
	return c.rdb.Del(ctx, c.key(twinID)).Err()
}

// Window returns the number of turns kept per twin.
func (c *RecentTurns) Window() int { return c.window }
