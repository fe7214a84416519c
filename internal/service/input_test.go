package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pageza/nutritionist/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcessInputText(t *testing.T) {
	p := NewInputProcessor(nil, zap.NewNop())
	out, err := p.ProcessInput(context.Background(), "2 cups rice and 1 banana", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "rice, banana", out)
}

func TestProcessInputPrefersImage(t *testing.T) {
	vision := new(testhelpers.MockVisionExtractor)
	vision.On("ExtractFoods", mock.Anything, []byte("img"), "image/jpeg").Return("*apple*, pear", nil)

	p := NewInputProcessor(vision, zap.NewNop())
	out, err := p.ProcessInput(context.Background(), "ignored", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "apple, pear", out)
	vision.AssertExpectations(t)
}

func TestProcessInputNothingGiven(t *testing.T) {
	p := NewInputProcessor(nil, zap.NewNop())
	_, err := p.ProcessInput(context.Background(), "  ", nil, "")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "no valid input provided", ve.Message)
}

func TestExtractFoodsFromImageFailures(t *testing.T) {
	p := NewInputProcessor(nil, zap.NewNop())
	_, err := p.ExtractFoodsFromImage(context.Background(), nil, "image/png")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = p.ExtractFoodsFromImage(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrLLMNotConfigured)

	vision := new(testhelpers.MockVisionExtractor)
	vision.On("ExtractFoods", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("boom"))
	_, err = NewInputProcessor(vision, zap.NewNop()).ExtractFoodsFromImage(context.Background(), []byte("img"), "image/png")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}
