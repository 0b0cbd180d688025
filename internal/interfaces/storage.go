// Package interfaces defines service contracts for InvestFlow
package interfaces

import (
	"context"

	"github.com/bobmcallan/investflow/internal/models"
)

// StorageManager coordinates the storage backends
type StorageManager interface {
	// Storage accessors
	HoldingStore() HoldingStore
	UserStore() UserStore

	// Lifecycle
	Close() error
}

// HoldingStore persists holdings per owner. Writes are full-record
// overwrites keyed by holding ID. Failures are apperr Store errors.
type HoldingStore interface {
	// FetchAll returns every holding owned by ownerID, oldest write first.
	FetchAll(ctx context.Context, ownerID string) ([]models.Holding, error)

	// UpsertOne creates or overwrites a single holding.
	UpsertOne(ctx context.Context, ownerID string, h models.Holding) error

	// RemoveOne deletes the holding with the given ID. Removing a missing
	// holding is not an error.
	RemoveOne(ctx context.Context, id string) error

	// UpsertBatch writes all holdings in one transaction. Either every
	// record is written or none is.
	UpsertBatch(ctx context.Context, ownerID string, hs []models.Holding) error
}

// UserStore manages user accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	SaveUser(ctx context.Context, account *models.UserAccount) error
}
