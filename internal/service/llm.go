package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrLLMNotConfigured is returned when no API key was provided.
var ErrLLMNotConfigured = errors.New("generative model is not configured")

const visionPrompt = "Extract all visible food items from this image. " +
	"Return only a simple comma-separated list of food names. " +
	"Example: 'banana, apple, bread, chicken' " +
	"Do not include quantities, descriptions, or other text."

// Message represents a chat message
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Request represents a chat completions request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// LLMConfig configures an LLMClient.
type LLMConfig struct {
	APIKey      string
	APIURL      string
	Model       string
	VisionModel string
	Timeout     time.Duration
}

// LLMClient talks to an OpenAI-compatible chat completions endpoint. It
// serves both text completion and image-to-food extraction.
type LLMClient struct {
	client      *resty.Client
	model       string
	visionModel string
	configured  bool
	log         *zap.Logger
}

func NewLLMClient(cfg LLMConfig, log *zap.Logger) *LLMClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.APIURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &LLMClient{
		client:      client,
		model:       cfg.Model,
		visionModel: visionModel,
		configured:  cfg.APIKey != "",
		log:         log,
	}
}

// Complete sends prompt as a single user message.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "completion", Request{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
}

// ExtractFoods asks the vision model for a comma-separated food list and
// strips any markdown from the reply.
func (c *LLMClient) ExtractFoods(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	text, err := c.chat(ctx, "vision", Request{
		Model: c.visionModel,
		Messages: []Message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return cleanFoodList(text), nil
}

var markdownStripper = strings.NewReplacer("*", "", "`", "")

func cleanFoodList(text string) string {
	return strings.TrimSpace(markdownStripper.Replace(strings.TrimSpace(text)))
}

func (c *LLMClient) chat(ctx context.Context, op string, req Request) (string, error) {
	if !c.configured {
		return "", ErrLLMNotConfigured
	}

	var result chatResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	c.log.Debug("llm call finished",
		zap.String("op", op),
		zap.String("model", req.Model),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode() != http.StatusOK {
		msg := truncate(resp.String(), 200)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}
	if len(result.Choices) == 0 {
		return "", &TransportError{Op: op, Err: errors.New("no choices in response")}
	}
	return result.Choices[0].Message.Content, nil
}
