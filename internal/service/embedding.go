package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
)

// HashEmbedder is a deterministic bag-of-words embedding built by feature
// hashing word unigrams and bigrams. It needs no external service.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	add := func(feature string, weight float32) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dims))
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}
	for i, w := range words {
		add(w, 1)
		if i > 0 {
			add(words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *resty.Client
	model  string
	dims   int
}

func NewOpenAIEmbedder(baseURL, apiKey, model string, dims int, timeout time.Duration) *OpenAIEmbedder {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &OpenAIEmbedder{client: client, model: model, dims: dims}
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// Model names the upstream model for cache keys.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var result embeddingResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: e.model, Input: texts, Dimensions: e.dims}).
		SetResult(&result).
		Post("/embeddings")
	if err != nil {
		return nil, &TransportError{Op: "embed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{
			Op:         "embed",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%s", truncate(resp.String(), 200)),
		}
	}
	if len(result.Data) != len(texts) {
		return nil, &TransportError{Op: "embed", Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data))}
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	out := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) != e.dims {
			return nil, &TransportError{Op: "embed", Err: fmt.Errorf("expected %d dimensions, got %d", e.dims, len(d.Embedding))}
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// EmbedderConfig selects an embedding backend.
type EmbedderConfig struct {
	Provider   string
	APIKey     string
	APIURL     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// Space names the vector space the backend produces. Vectors from different
// spaces must never be compared or share a cache entry.
func (c EmbedderConfig) Space() string {
	if c.Provider == "openai" {
		return "openai:" + c.Model
	}
	return c.Provider
}

// NewEmbedder builds the configured backend.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.APIURL, cfg.APIKey, cfg.Model, cfg.Dimensions, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
