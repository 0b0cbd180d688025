// Package auth provides account registration, sign-in and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

const (
	issuer         = "investflow-server"
	bcryptCost     = 10
	maxPasswordLen = 72 // bcrypt ignores bytes beyond 72
	eventBuffer    = 64
)

// Service implements AuthService
type Service struct {
	users    interfaces.UserStore
	config   common.AuthConfig
	validate *validator.Validate
	logger   *common.Logger
	now      func() time.Time

	mu          sync.Mutex
	subscribers []chan models.SessionEvent
	revoked     map[string]time.Time
	closed      bool
}

var _ interfaces.AuthService = (*Service)(nil)

// NewService creates a new auth service
func NewService(users interfaces.UserStore, config common.AuthConfig, logger *common.Logger) *Service {
	if config.MinPasswordLength <= 0 {
		config.MinPasswordLength = 6
	}
	return &Service{
		users:    users,
		config:   config,
		validate: common.NewValidator(),
		logger:   logger,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, req interfaces.RegisterRequest) (*interfaces.AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if req.Name == "" {
		return nil, apperr.Validation("Name is required.")
	}
	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return nil, apperr.Validation("A valid email address is required.")
	}
	if len(req.Password) < s.config.MinPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("Password must be at least %d characters.", s.config.MinPasswordLength))
	}

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword(truncatePassword(req.Password), bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}

	now := s.now()
	account := &models.UserAccount{
		UserID:       uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.users.SaveUser(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to save user")
		return nil, err
	}

	s.logger.Info().Str("user_id", account.UserID).Msg("User registered")
	return s.signIn(account)
}

// Login verifies credentials. Unknown emails and wrong passwords fail
// identically.
func (s *Service) Login(ctx context.Context, email, password string) (*interfaces.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}

	account, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), truncatePassword(password)); err != nil {
		s.logger.Debug().Str("user_id", account.UserID).Msg("Password mismatch")
		return nil, apperr.ErrInvalidCredentials
	}

	return s.signIn(account)
}

func (s *Service) signIn(account *models.UserAccount) (*interfaces.AuthResult, error) {
	token, expiresAt, err := s.signJWT(account)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign token")
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}

	user := account.Public()
	s.publish(models.SessionEvent{UserID: account.UserID, User: user})
	return &interfaces.AuthResult{Token: token, ExpiresAt: expiresAt.Unix(), User: user}, nil
}

// Logout revokes the session token and announces the sign-out.
func (s *Service) Logout(ctx context.Context, claims *interfaces.TokenClaims) error {
	if claims == nil || claims.UserID == "" {
		return apperr.ErrUnauthorized
	}

	s.mu.Lock()
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	if claims.TokenID != "" {
		s.revoked[claims.TokenID] = claims.ExpiresAt
	}
	s.mu.Unlock()

	s.logger.Info().Str("user_id", claims.UserID).Msg("User signed out")
	s.publish(models.SessionEvent{UserID: claims.UserID})
	return nil
}

// CurrentUser returns the public profile of a user
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	account, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

// signJWT creates a signed HMAC-SHA256 JWT for the account.
func (s *Service) signJWT(account *models.UserAccount) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.GetTokenExpiry())
	claims := jwt.MapClaims{
		"sub":   account.UserID,
		"email": account.Email,
		"name":  account.Name,
		"jti":   uuid.New().String(),
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	return signed, expiresAt, err
}

// ValidateToken parses a session token and checks it has not been revoked.
func (s *Service) ValidateToken(tokenString string) (*interfaces.TokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperr.ErrUnauthorized
	}
	tc := &interfaces.TokenClaims{UserID: sub}
	tc.Email, _ = claims["email"].(string)
	tc.Name, _ = claims["name"].(string)
	tc.TokenID, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}

	s.mu.Lock()
	_, revoked := s.revoked[tc.TokenID]
	s.mu.Unlock()
	if revoked {
		return nil, apperr.ErrUnauthorized
	}
	return tc, nil
}

// Subscribe returns a channel receiving every sign-in and sign-out. The
// channel is closed by Close.
func (s *Service) Subscribe() <-chan models.SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan models.SessionEvent, eventBuffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Service) publish(ev models.SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.logger.Warn().Str("user_id", ev.UserID).Bool("signed_in", ev.SignedIn()).Msg("Session event dropped, subscriber is full")
		}
	}
}

// Close ends every subscription.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordLen {
		b = b[:maxPasswordLen]
	}
	return b
}
