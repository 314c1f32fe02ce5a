// Package redisstate persists per-project point-set state in Redis, one key
// per project with a TTL. Absence of the key means "first run".
package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brainlift_tracker/internal/domain"
)

const keyPrefix = "brainlift:state:"

// Store implements the project state store contract on Redis.
type Store struct {
	client *redis.Client
}

// New connects to Redis from a URL and verifies the connection.
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(projectID string) string {
	return keyPrefix + projectID
}

// Get loads the stored state for a project. A missing key yields
// domain.ErrStateNotFound, which callers treat as first run.
func (s *Store) Get(ctx context.Context, projectID string) (*domain.ProjectState, error) {
	raw, err := s.client.Get(ctx, key(projectID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state %s: %w", projectID, err)
	}

	var state domain.ProjectState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", projectID, err)
	}
	if state.DOK4 == nil {
		state.DOK4 = []domain.Point{}
	}
	if state.DOK3 == nil {
		state.DOK3 = []domain.Point{}
	}
	return &state, nil
}

// Put stores the state with the given TTL, stamping LastUpdated and the TTL
// deadline on the way in.
func (s *Store) Put(ctx context.Context, state *domain.ProjectState, ttl time.Duration) error {
	now := time.Now().UTC()
	state.LastUpdated = now
	state.TTL = now.Add(ttl)
	if state.DOK4 == nil {
		state.DOK4 = []domain.Point{}
	}
	if state.DOK3 == nil {
		state.DOK3 = []domain.Point{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", state.ProjectID, err)
	}

	if err := s.client.Set(ctx, key(state.ProjectID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("put state %s: %w", state.ProjectID, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
