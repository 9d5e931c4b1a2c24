// Package redis implements the Redis-backed conversation session store.
// Sessions are small JSON blobs keyed by chat ID with a sliding TTL, so a
// bot restart (or a second replica) picks up conversations mid-flow.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campus-connect/campus-bot/internal/domain/session"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration

	// SessionTTL is how long an idle conversation survives before expiring.
	SessionTTL time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		SessionTTL:   24 * time.Hour,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrStoreConnection is returned when the Redis connection fails.
	ErrStoreConnection = errors.New("session_store: connection failed")

	// ErrStoreSerialization is returned when a session cannot be encoded or
	// decoded.
	ErrStoreSerialization = errors.New("session_store: serialization failed")
)

// keyPrefix namespaces session keys.
const keyPrefix = "session:"

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore implements session.Store on Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore connects to Redis and verifies the connection.
func NewSessionStore(ctx context.Context, cfg Config) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreConnection, err)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionStore{client: client, ttl: ttl}, nil
}

// Get returns the session for a chat. A missing key yields a fresh idle
// session rather than an error.
func (s *SessionStore) Get(ctx context.Context, chatID int64) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.New(chatID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreConnection, err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreSerialization, err)
	}
	if sess.PendingFields == nil {
		sess.PendingFields = make(map[string]string)
	}

	return &sess, nil
}

// Put stores the session and refreshes its TTL.
func (s *SessionStore) Put(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreSerialization, err)
	}

	if err := s.client.Set(ctx, s.key(sess.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreConnection, err)
	}

	return nil
}

// Clear removes the session for a chat.
func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, s.key(chatID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreConnection, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) key(chatID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, chatID)
}
