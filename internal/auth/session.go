package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// Session is the identity bound to a client at login or signup. Username is
// snapshotted at bind time; there is no rename path, so it never goes stale.
type Session struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// SessionStore binds opaque session ids to identities.
type SessionStore interface {
	Create(ctx context.Context, userID int64, username string) (string, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps session bindings in Redis. The cookie value is an
// unguessable uuid; a forged or expired id simply resolves to no binding.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// Create stores a new session mapping sessionID -> identity.
func (s *RedisSessionStore) Create(ctx context.Context, userID int64, username string) (string, error) {
	sid := uuid.New().String()
	payload, err := json.Marshal(Session{UserID: userID, Username: username})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, "session:"+sid, payload, SessionTTL).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// Get returns the identity for a session, or nil if not found / expired.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}
