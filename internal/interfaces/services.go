// Package interfaces defines service contracts for InvestFlow
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/investflow/internal/models"
)

// PortfolioService manages each owner's in-memory workspace of holdings
// and its write-through to the HoldingStore.
type PortfolioService interface {
	// Load replaces the owner's workspace with the store's holdings. On
	// failure the previous workspace is kept.
	Load(ctx context.Context, ownerID string) ([]models.Holding, error)

	// Clear drops the owner's workspace.
	Clear(ownerID string)

	// Holdings returns a copy of the owner's workspace, loading it from the
	// store on first use.
	Holdings(ctx context.Context, ownerID string) ([]models.Holding, error)

	// SaveHolding creates or updates one holding.
	SaveHolding(ctx context.Context, ownerID string, h models.Holding) (*models.Holding, error)

	// RemoveHolding deletes one holding by ID.
	RemoveHolding(ctx context.Context, ownerID, id string) error

	// Import fetches positions from the broker and merges them in.
	Import(ctx context.Context, ownerID string, req ImportRequest) (*models.ImportResult, error)

	// Summary computes stats and display strings for the workspace.
	Summary(ctx context.Context, ownerID string) (*models.PortfolioSummary, error)

	// Allocation groups the workspace's value by sector.
	Allocation(ctx context.Context, ownerID string) ([]models.AllocationSlice, error)
}

// ImportRequest configures a broker import
type ImportRequest struct {
	APIKey string `json:"api_key"`
	Demo   bool   `json:"demo"`
}

// InsightService produces a narrative analysis of a portfolio. It never
// fails; problems are reported through Insight.Fallback.
type InsightService interface {
	Generate(ctx context.Context, holdings []models.Holding, stats models.PortfolioStats) *models.Insight
}

// AuthService manages accounts and sessions
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, claims *TokenClaims) error
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
	ValidateToken(token string) (*TokenClaims, error)
	Subscribe() <-chan models.SessionEvent
}

// RegisterRequest is the input of account creation
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by successful register and login
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

// TokenClaims are the validated contents of a session token
type TokenClaims struct {
	UserID    string
	Email     string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}
