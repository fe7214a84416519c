package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ExtractFoodsFromImage lists the foods visible in a meal photo.
func (p *InputProcessor) ExtractFoodsFromImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", &ValidationError{Field: "image", Message: "image is empty"}
	}
	if p.vision == nil {
		return "", ErrLLMNotConfigured
	}

	foods, err := p.vision.ExtractFoods(ctx, image, mimeType)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) && !errors.Is(err, ErrLLMNotConfigured) {
			err = &TransportError{Op: "vision", Err: err}
		}
		p.log.Warn("food extraction from image failed", zap.Error(err))
		return "", err
	}
	foods = cleanFoodList(foods)
	p.log.Info("extracted foods from image", zap.String("foods", foods))
	return foods, nil
}
