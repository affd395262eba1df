// Package store persists session snapshots in Redis so a restarted engine
// can pick its live matches back up. Snapshots are plain JSON; the active
// index is a set of session ids that terminal sessions leave while their
// final snapshot stays readable until the TTL runs out.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

const snapshotTTL = 24 * time.Hour

type Redis struct {
	rdb *redis.Client
}

// Open dials Redis from a redis:// URL and pings it once.
func Open(redisURL string) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewWithClient wraps an existing client; tests use this with miniredis.
func NewWithClient(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// Save writes the snapshot and maintains the active index. Terminal
// sessions are removed from the index in the same pipeline as the write so
// a crash cannot leave a finished game in the sweep set.
func (r *Redis) Save(ctx context.Context, s *game.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), raw, snapshotTTL)
	if s.Terminal() {
		pipe.SRem(ctx, activeKey, s.ID)
	} else {
		pipe.SAdd(ctx, activeKey, s.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns one snapshot, nil when absent.
func (r *Redis) Load(ctx context.Context, id string) (*game.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s game.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &s, nil
}

// LoadActive returns every indexed live session. Ids whose snapshot expired
// are dropped from the index as they are found.
func (r *Redis) LoadActive(ctx context.Context) ([]*game.Session, error) {
	ids, err := r.rdb.SMembers(ctx, activeKey).Result()
	if err != nil {
		return nil, err
	}
	var out []*game.Session
	for _, id := range ids {
		s, err := r.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			obslog.L().Warn("active_index_stale", zap.String("session_id", id))
			_ = r.rdb.SRem(ctx, activeKey, id).Err()
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

const activeKey = "arena:active"

func sessionKey(id string) string { return "arena:session:" + strings.TrimSpace(id) }

// ParseRedisURL converts a redis:// or rediss:// URL into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
