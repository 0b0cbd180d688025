package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserStore implements interfaces.UserStore. Accounts are keyed by user
// ID; emails are stored lower-cased.
type UserStore struct {
	db      *surrealdb.DB
	logger  *common.Logger
	timeout time.Duration
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger, timeout time.Duration) *UserStore {
	return &UserStore{
		db:      db,
		logger:  logger,
		timeout: timeout,
	}
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := surrealdb.Select[models.UserAccount](ctx, s.db, surrealmodels.NewRecordID(userTable, userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Wrap(apperr.ErrStoreUser, fmt.Errorf("select user: %w", err))
	}
	if user == nil {
		return nil, apperr.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sql := "SELECT * FROM user WHERE email = $email LIMIT 1"
	vars := map[string]any{"email": strings.ToLower(strings.TrimSpace(email))}

	results, err := surrealdb.Query[[]models.UserAccount](ctx, s.db, sql, vars)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreUser, fmt.Errorf("query user by email: %w", err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, apperr.ErrNotFound
	}
	user := (*results)[0].Result[0]
	return &user, nil
}

func (s *UserStore) SaveUser(ctx context.Context, account *models.UserAccount) error {
	if account == nil || account.UserID == "" {
		return apperr.Wrap(apperr.ErrStoreUser, fmt.Errorf("user account requires an id"))
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	stored := *account
	stored.Email = strings.ToLower(strings.TrimSpace(stored.Email))
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.ModifiedAt = now

	sql := "UPSERT type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": stored.UserID, "user": stored}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.UserAccount](ctx, s.db, sql, vars)
		if err == nil {
			s.logger.Debug().Str("user_id", stored.UserID).Msg("User saved")
			return nil
		}
		if attempt == 3 || ctx.Err() != nil {
			return apperr.Wrap(apperr.ErrStoreUser, fmt.Errorf("save user after retries: %w", err))
		}
	}
	return nil
}

// Compile-time check
var _ interfaces.UserStore = (*UserStore)(nil)
