package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arxiv-similarity-search/internal/models"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL. It is an operational option
// for running several replicas behind one Redis, not a durability promise.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, id string, results *models.ResultSet) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.ResultSet, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var results models.ResultSet
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("deserializing session: %w", err)
	}
	return &results, nil
}

// SetSummary re-reads the stored session and writes back only the summary
// change, so a concurrent summary on another paper of the same session cannot
// be lost by a stale whole-record overwrite. Concurrent summaries of the same
// paper are last-write-wins.
func (s *RedisStore) SetSummary(ctx context.Context, id string, position int, summary *models.Summary) error {
	results, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if position < 0 || position >= len(results.Papers) {
		return ErrPaperOutOfRange
	}

	results.Papers[position].Summary = summary

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}
