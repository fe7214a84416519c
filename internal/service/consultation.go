package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const consultationTTL = 24 * time.Hour

// Consultation is one generated recommendation with the context it was
// built from.
type Consultation struct {
	ID             string    `json:"id"`
	Goal           string    `json:"goal"`
	Diet           string    `json:"diet"`
	Restrictions   []string  `json:"restrictions,omitempty"`
	Allergies      []string  `json:"allergies,omitempty"`
	Cuisine        string    `json:"cuisine,omitempty"`
	Ingredients    []string  `json:"ingredients"`
	Nutrition      string    `json:"nutrition"`
	Recipes        string    `json:"recipes"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// RedisConsultationStore keeps consultations for a day.
type RedisConsultationStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisConsultationStore(client *redis.Client) *RedisConsultationStore {
	return &RedisConsultationStore{redis: client, ttl: consultationTTL}
}

func consultationKey(id string) string {
	return fmt.Sprintf("nutritionist:consultation:%s", id)
}

// Save saves a consultation to Redis
func (s *RedisConsultationStore) Save(ctx context.Context, c *Consultation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal consultation: %w", err)
	}
	if err := s.redis.Set(ctx, consultationKey(c.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save consultation to Redis: %w", err)
	}
	return nil
}

// Get returns ErrNotFound once the consultation has expired.
func (s *RedisConsultationStore) Get(ctx context.Context, id string) (*Consultation, error) {
	data, err := s.redis.Get(ctx, consultationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation from Redis: %w", err)
	}

	var c Consultation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consultation: %w", err)
	}
	return &c, nil
}
