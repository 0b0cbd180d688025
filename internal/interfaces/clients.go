// Package interfaces defines service contracts for InvestFlow
package interfaces

import (
	"context"

	"github.com/bobmcallan/investflow/internal/models"
)

// PositionFeed provides open positions from an external broker
type PositionFeed interface {
	// FetchPositions retrieves the open positions visible to credential.
	// sandbox selects the broker's demo environment.
	FetchPositions(ctx context.Context, credential string, sandbox bool) ([]models.RawPosition, error)
}

// GeminiClient provides access to Gemini API
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
