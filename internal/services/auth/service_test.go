package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	tcommon "github.com/bobmcallan/investflow/tests/common"
)

func newTestService(t *testing.T) (*Service, *tcommon.MockUserStore) {
	t.Helper()
	store := tcommon.NewMockUserStore()
	cfg := common.AuthConfig{JWTSecret: "test-secret", TokenExpiry: "1h", MinPasswordLength: 6}
	svc := NewService(store, cfg, common.NewSilentLogger())
	t.Cleanup(svc.Close)
	return svc, store
}

func register(t *testing.T, svc *Service) *interfaces.AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), interfaces.RegisterRequest{
		Name:     "Ana Silva",
		Email:    "  Ana@Example.com ",
		Password: "secret123",
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, store := newTestService(t)
	events := svc.Subscribe()

	res := register(t, svc)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Ana Silva", res.User.Name)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Contains(t, res.User.AvatarURL, "seed=ana@example.com")

	account, err := store.GetUser(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(account.PasswordHash, "$2a$"))
	assert.NotEqual(t, "secret123", account.PasswordHash)

	select {
	case ev := <-events:
		assert.True(t, ev.SignedIn())
		assert.Equal(t, res.User.ID, ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("no session event")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  interfaces.RegisterRequest
		msg  string
	}{
		{"missing name", interfaces.RegisterRequest{Email: "a@b.co", Password: "secret1"}, "Name is required."},
		{"bad email", interfaces.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"}, "A valid email address is required."},
		{"short password", interfaces.RegisterRequest{Name: "A", Email: "a@b.co", Password: "12345"}, "Password must be at least 6 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			var ae *apperr.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tt.msg, ae.Message)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), interfaces.RegisterRequest{Name: "Other", Email: "ANA@example.com", Password: "another1"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateEmail))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	reg := register(t, svc)

	res, err := svc.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc)
	ctx := context.Background()

	_, errWrong := svc.Login(ctx, "ana@example.com", "wrong-password")
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "secret123")

	assert.True(t, errors.Is(errWrong, apperr.ErrInvalidCredentials))
	assert.True(t, errors.Is(errUnknown, apperr.ErrInvalidCredentials))
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_StoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.Err = errors.New("down")

	_, err := svc.Login(context.Background(), "ana@example.com", "secret123")
	assert.True(t, apperr.IsKind(err, apperr.KindStore))
	assert.Contains(t, err.Error(), apperr.ErrStoreUser.Message)
}

func TestLogout_RevokesTokenAndEmitsSignOut(t *testing.T) {
	svc, _ := newTestService(t)
	res := register(t, svc)
	events := svc.Subscribe()

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = svc.ValidateToken(res.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	ev := <-events
	assert.False(t, ev.SignedIn())
	assert.Equal(t, res.User.ID, ev.UserID)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	res := register(t, svc)

	// Wrong secret
	other := NewService(tcommon.NewMockUserStore(), common.AuthConfig{JWTSecret: "other"}, common.NewSilentLogger())
	_, err := other.ValidateToken(res.Token)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	// Expired
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(res.Token)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	svc.now = time.Now

	// Unsigned
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "iss": issuer})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	_, err = svc.ValidateToken("garbage")
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
}

func TestCurrentUser(t *testing.T) {
	svc, _ := newTestService(t)
	res := register(t, svc)

	user, err := svc.CurrentUser(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", user.Name)

	_, err = svc.CurrentUser(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSubscribe_ClosedOnClose(t *testing.T) {
	svc, _ := newTestService(t)
	events := svc.Subscribe()
	svc.Close()

	_, ok := <-events
	assert.False(t, ok)

	_, ok = <-svc.Subscribe()
	assert.False(t, ok)
}
