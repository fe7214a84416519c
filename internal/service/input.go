package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// InputProcessor turns typed text or a meal photo into a food list.
type InputProcessor struct {
	vision VisionExtractor
	log    *zap.Logger
}

func NewInputProcessor(vision VisionExtractor, log *zap.Logger) *InputProcessor {
	return &InputProcessor{vision: vision, log: log}
}

// ProcessInput returns the foods as a comma-separated list. An image takes
// precedence over text.
func (p *InputProcessor) ProcessInput(ctx context.Context, text string, image []byte, mimeType string) (string, error) {
	if len(image) > 0 {
		p.log.Info("extracting foods from image", zap.Int("bytes", len(image)))
		return p.ExtractFoodsFromImage(ctx, image, mimeType)
	}
	if strings.TrimSpace(text) != "" {
		return strings.Join(ExtractFoodTokens(text), ", "), nil
	}
	return "", &ValidationError{Field: "input", Message: "no valid input provided"}
}
