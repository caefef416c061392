package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
	"github.com/redis/go-redis/v9"
)

const (
	suggestionKeyPrefix = "handlecraft:suggestions:" // handlecraft:suggestions:{platform}:{tone}:{name_hash}
	defaultCacheTTL     = 10 * time.Minute
)

// SuggestionCache stores validated suggestion lists in Redis.
type SuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSuggestionCache creates a new SuggestionCache
func NewSuggestionCache(client *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &SuggestionCache{client: client, ttl: ttl}
}

// Get returns the cached suggestions for sub. ok is false on a miss.
func (r *SuggestionCache) Get(ctx context.Context, sub domain.SubmissionRequest) ([]domain.Suggestion, bool, error) {
	data, err := r.client.Get(ctx, r.key(sub)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached suggestions: %w", err)
	}

	var out []domain.Suggestion
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached suggestions: %w", err)
	}
	return out, true, nil
}

// Set stores suggestions for sub with the cache TTL.
func (r *SuggestionCache) Set(ctx context.Context, sub domain.SubmissionRequest, suggestions []domain.Suggestion) error {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sub), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache suggestions: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *SuggestionCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// key hashes the name so arbitrary user text never lands in a key. The name
// is matched exactly since the prompt carries it verbatim.
func (r *SuggestionCache) key(sub domain.SubmissionRequest) string {
	sum := sha256.Sum256([]byte(sub.Name))
	return suggestionKeyPrefix + string(sub.Platform) + ":" + string(sub.Tone) + ":" + hex.EncodeToString(sum[:16])
}
