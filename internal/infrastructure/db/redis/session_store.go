package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/user-admin/internal/core/ports"
)

const scanBatch = 100

// SessionStore keeps one key per open session.
// Key format: session:<user_id>:<session_id>
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) ports.SessionStore {
	return &SessionStore{client: client}
}

// Save opens a session that expires after ttl.
func (s *SessionStore) Save(ctx context.Context, userID uint, sessionID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(userID, sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *SessionStore) Exists(ctx context.Context, userID uint, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(userID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session check: %w", err)
	}
	return n > 0, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID uint, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// DeleteAll scans the user's session keys and removes them batch by batch.
func (s *SessionStore) DeleteAll(ctx context.Context, userID uint) error {
	pattern := fmt.Sprintf("session:%d:*", userID)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("session scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("session delete all: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func sessionKey(userID uint, sessionID string) string {
	return fmt.Sprintf("session:%d:%s", userID, sessionID)
}
