// Package session implements the Session Store: a durable,
// per-(user_id, session_id) append-only log of turn records with TTL,
// backed by Redis with an in-memory fallback so the core still runs when
// Redis is unavailable.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/thegrumpylion/google-mcp/internal/metrics"
	"github.com/thegrumpylion/google-mcp/internal/model"
)

// Store appends turn records to a durable per-session log. Writes are
// fire-and-forget with at-least-once semantics; Append never blocks
// the calling tool handler on the backing store's latency beyond a short
// per-write timeout.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	memory map[string][]model.SessionTurn // degraded-mode fallback
}

// Config configures the Store.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// New builds a Store. If cfg.RedisAddr is empty, the store runs purely
// in-memory (suitable for tests and single-process degraded mode).
func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{ttl: cfg.TTL, logger: logger, metrics: m, memory: make(map[string][]model.SessionTurn)}
	if cfg.RedisAddr != "" {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return s
}

func key(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// Append records one turn. It never returns an error to the caller's
// critical path: failures are logged and the turn falls back to the
// in-memory log for this process's lifetime.
func (s *Store) Append(ctx context.Context, userID, sessionID string, turn model.SessionTurn) {
	k := key(userID, sessionID)

	if s.rdb == nil {
		s.appendMemory(k, turn)
		s.observe("memory", "ok")
		return
	}

	data, err := json.Marshal(turn)
	if err != nil {
		s.logger.Warn("session turn marshal failed", zap.Error(err))
		s.appendMemory(k, turn)
		s.observe("redis", "marshal_error")
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.RPush(writeCtx, k, data)
	pipe.Expire(writeCtx, k, s.ttl)
	if _, err := pipe.Exec(writeCtx); err != nil {
		s.logger.Warn("session store append failed, degrading to memory", zap.Error(err), zap.String("key", k))
		s.appendMemory(k, turn)
		s.observe("redis", "error")
		return
	}
	s.observe("redis", "ok")
}

func (s *Store) appendMemory(k string, turn model.SessionTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[k] = append(s.memory[k], turn)
}

func (s *Store) observe(backend, outcome string) {
	if s.metrics != nil {
		s.metrics.SessionWriteTotal.WithLabelValues(backend, outcome).Inc()
	}
}

// History returns the recorded turns for (userID, sessionID). Reads are not
// in the hot path of tool execution; used only by callers resolving
// a reference to an earlier turn.
func (s *Store) History(ctx context.Context, userID, sessionID string) ([]model.SessionTurn, error) {
	k := key(userID, sessionID)

	if s.rdb == nil {
		return s.historyMemory(k), nil
	}

	vals, err := s.rdb.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		s.logger.Warn("session store read failed, falling back to memory", zap.Error(err))
		return s.historyMemory(k), nil
	}
	turns := make([]model.SessionTurn, 0, len(vals))
	for _, v := range vals {
		var t model.SessionTurn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) historyMemory(k string) []model.SessionTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SessionTurn, len(s.memory[k]))
	copy(out, s.memory[k])
	return out
}

// Close releases the Redis client, if any.
func (s *Store) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
