package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sessionkit/sessionkit/core/session"
)

// Store implements session.TokenStore over a single Redis key.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a token store persisting the record under key.
func NewStore(client *redis.Client, key string) (*Store, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &Store{client: client, key: key}, nil
}

// Get reads the persisted record. A missing key reads as session.ErrNoRecord.
func (s *Store) Get(ctx context.Context) (*session.Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNoRecord
		}
		return nil, fmt.Errorf("reading token record: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding token record: %w", err)
	}
	return &rec, nil
}

// Set writes the record. When the token carries a readable expiry the key's
// TTL is pinned to it, so Redis drops the record when the token dies anyway.
func (s *Store) Set(ctx context.Context, record session.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	var ttl time.Duration // 0 = no expiration
	if info := record.ExpirationInfo(); info != nil {
		ttl = info.Remaining()
		if ttl <= 0 {
			// Already dead; persisting it would only confuse the next mount.
			return s.Clear(ctx)
		}
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}
	return nil
}

// Clear removes the record. Missing key is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("removing token record: %w", err)
	}
	return nil
}
