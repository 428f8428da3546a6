// Package history persists conversation transcripts to Redis. The
// store is optional: when Redis is unreachable the client runs without
// transcripts instead of failing.
package history

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	RoleOperator  = "operator"
	RoleCompanion = "companion"
)

// Entry is one recorded conversation turn.
type Entry struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Store appends transcript entries to a per-session Redis list.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open connects to Redis. If the server does not answer a short ping,
// the returned store is a no-op and transcripts are skipped.
func Open(ctx context.Context, addr, password string, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("history: redis unavailable, transcripts disabled: %v", err)
		rdb.Close()
		rdb = nil
	}

	return &Store{rdb: rdb, ttl: ttl}
}

// Record appends one entry to the session's transcript. Safe on a nil
// or disconnected store; failures are logged, never escalated.
func (s *Store) Record(ctx context.Context, sessionID string, e Entry) {
	if s == nil || s.rdb == nil {
		return
	}

	data, err := sonic.Marshal(e)
	if err != nil {
		log.Printf("history: encode entry: %v", err)
		return
	}

	key := "transcript:" + sessionID
	if err := s.rdb.RPush(ctx, key, data).Err(); err != nil {
		log.Printf("history: append entry: %v", err)
		return
	}
	s.rdb.Expire(ctx, key, s.ttl)
}

// Close releases the Redis connection.
func (s *Store) Close() {
	if s == nil || s.rdb == nil {
		return
	}
	s.rdb.Close()
}
