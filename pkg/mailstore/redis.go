package mailstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Akenaide/byemail/pkg/mailmodel"
)

// RedisConfig holds the connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultRedisConfig returns the default Redis store configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "byemail",
	}
}

// RedisStore persists records in Redis, one hash per record with the
// JSON document in the "data" field.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store and verifies the
// connection before returning it.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("ERROR: Failed to connect to Redis at %s: %v", config.Addr, err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "byemail"
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) mailKey(id string) string {
	return fmt.Sprintf("%s:mail:%s", s.prefix, id)
}

func (s *RedisStore) mailboxKey(id string) string {
	return fmt.Sprintf("%s:mailbox:%s", s.prefix, id)
}

// scanKeys enumerates keys matching the pattern using SCAN instead of
// KEYS, which behaves better with pattern matching on large keyspaces.
func (s *RedisStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var allKeys []string
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		allKeys = append(allKeys, keys...)
		if next == 0 {
			return allKeys, nil
		}
		cursor = next
	}
}

func (s *RedisStore) putRecord(ctx context.Context, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.HSet(ctx, key, "data", string(data)).Err(); err != nil {
		return fmt.Errorf("failed to store record %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) getRecord(ctx context.Context, key string, record any) error {
	data, err := s.client.HGet(ctx, key, "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load record %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), record); err != nil {
		return fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return nil
}

// InsertMessage stores a captured message. Messages are immutable; the
// key is never written twice because IDs are never reused.
func (s *RedisStore) InsertMessage(ctx context.Context, msg *mailmodel.Message) error {
	return s.putRecord(ctx, s.mailKey(msg.ID), msg)
}

// GetMessage loads one message by ID.
func (s *RedisStore) GetMessage(ctx context.Context, id string) (*mailmodel.Message, error) {
	var msg mailmodel.Message
	if err := s.getRecord(ctx, s.mailKey(id), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages loads all stored messages, delivered and failed.
func (s *RedisStore) ListMessages(ctx context.Context) ([]*mailmodel.Message, error) {
	keys, err := s.scanKeys(ctx, s.mailKey("*"))
	if err != nil {
		return nil, err
	}
	messages := make([]*mailmodel.Message, 0, len(keys))
	for _, key := range keys {
		var msg mailmodel.Message
		if err := s.getRecord(ctx, key, &msg); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Deleted between scan and load.
				continue
			}
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// InsertMailbox stores a new mailbox aggregate.
func (s *RedisStore) InsertMailbox(ctx context.Context, mb *mailmodel.Mailbox) error {
	return s.putRecord(ctx, s.mailboxKey(mb.ID), mb)
}

// UpdateMailbox replaces the stored aggregate keyed by its ID.
func (s *RedisStore) UpdateMailbox(ctx context.Context, mb *mailmodel.Mailbox) error {
	return s.putRecord(ctx, s.mailboxKey(mb.ID), mb)
}

// GetMailbox loads one mailbox by ID.
func (s *RedisStore) GetMailbox(ctx context.Context, id string) (*mailmodel.Mailbox, error) {
	var mb mailmodel.Mailbox
	if err := s.getRecord(ctx, s.mailboxKey(id), &mb); err != nil {
		return nil, err
	}
	return &mb, nil
}

// FindMailboxBySender looks a mailbox up by its sender key, enforcing
// the uniqueness constraint across the whole collection.
func (s *RedisStore) FindMailboxBySender(ctx context.Context, from string) (*mailmodel.Mailbox, error) {
	all, err := s.ListMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	var found *mailmodel.Mailbox
	for _, mb := range all {
		if mb.From != from {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguous
		}
		found = mb
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// ListMailboxes loads all mailbox aggregates.
func (s *RedisStore) ListMailboxes(ctx context.Context) ([]*mailmodel.Mailbox, error) {
	keys, err := s.scanKeys(ctx, s.mailboxKey("*"))
	if err != nil {
		return nil, err
	}
	mailboxes := make([]*mailmodel.Mailbox, 0, len(keys))
	for _, key := range keys {
		var mb mailmodel.Mailbox
		if err := s.getRecord(ctx, key, &mb); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		mailboxes = append(mailboxes, &mb)
	}
	return mailboxes, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
