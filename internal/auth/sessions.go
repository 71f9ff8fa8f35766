package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoa-eus/osoak/internal/platform/cache"
)

// ErrNoSession is returned when a token is unknown or expired.
var ErrNoSession = errors.New("auth: no such session")

// Session is the server-side state behind a bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	Guest     bool      `json:"guest,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists sessions keyed by token.
type SessionStore interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Remove(ctx context.Context, token string) error
}

// MemorySessionStore keeps sessions in a map. Used in tests and when no
// Redis is configured; sessions then die with the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNoSession
	}
	if m.now().After(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *MemorySessionStore) Remove(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// RedisSessionStore keeps sessions in Redis with the TTL doing the
// expiry, so they survive restarts and are shared across replicas.
type RedisSessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewRedisSessionStore(c *cache.Cache, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{cache: c, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (r *RedisSessionStore) Put(ctx context.Context, s Session) error {
	if err := r.cache.SetJSON(ctx, sessionKey(s.Token), s, r.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (Session, error) {
	var s Session
	err := r.cache.GetJSON(ctx, sessionKey(token), &s)
	if errors.Is(err, cache.ErrMiss) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (r *RedisSessionStore) Remove(ctx context.Context, token string) error {
	return r.cache.Delete(ctx, sessionKey(token))
}
