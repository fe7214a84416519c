package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedEmbedder keeps query embeddings in Redis so repeated searches skip
// the embedding call.
type CachedEmbedder struct {
	next  Embedder
	redis *redis.Client
	space string
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedEmbedder wraps next. space separates keys of different models.
func NewCachedEmbedder(next Embedder, client *redis.Client, space string, ttl time.Duration, log *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{next: next, redis: client, space: space, ttl: ttl, log: log}
}

func (e *CachedEmbedder) Dimensions() int {
	return e.next.Dimensions()
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		key := e.key(text)
		vec, _, err := cacheThrough(ctx, cacheOps[[]float32]{
			key: key,
			load: func(ctx context.Context) ([]float32, error) {
				data, err := e.redis.Get(ctx, key).Bytes()
				if errors.Is(err, redis.Nil) {
					return nil, errCacheMiss
				}
				if err != nil {
					return nil, err
				}
				var vec []float32
				if err := json.Unmarshal(data, &vec); err != nil {
					return nil, fmt.Errorf("failed to decode cached embedding: %w", err)
				}
				if len(vec) != e.Dimensions() {
					return nil, errCacheMiss
				}
				return vec, nil
			},
			fetch: func(ctx context.Context) ([]float32, error) {
				vecs, err := e.next.Embed(ctx, []string{text})
				if err != nil {
					return nil, err
				}
				return vecs[0], nil
			},
			save: func(ctx context.Context, vec []float32) error {
				data, err := json.Marshal(vec)
				if err != nil {
					return err
				}
				return e.redis.Set(ctx, key, data, e.ttl).Err()
			},
		}, e.log)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%d:%s", e.space, e.Dimensions(), hex.EncodeToString(sum[:]))
}
