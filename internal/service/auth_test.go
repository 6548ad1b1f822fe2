package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// memBlacklist is an in-process TokenBlacklist
type memBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = ttl
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@Example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "password123",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerRequest("alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	token, err := svc.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicates(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("alice"))
	require.NoError(t, err)

	sameEmail := registerRequest("alice2")
	sameEmail.Email = "ALICE@example.com"
	_, err = svc.Register(ctx, sameEmail)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	sameUsername := registerRequest("alice")
	sameUsername.Email = "other@example.com"
	_, err = svc.Register(ctx, sameUsername)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestValidateTokenRejects(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, db, "alice")

	_, err := svc.ValidateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(db, "other-secret", time.Hour, nil)
	token, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           user.ID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	gone := testhelpers.CreateTestUser(t, db, "gone")
	token, err = svc.GenerateToken(gone)
	require.NoError(t, err)
	require.NoError(t, db.Delete(gone).Error)
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	blacklist := newMemBlacklist()
	svc := NewAuthService(db, "test-secret", time.Hour, blacklist)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, db, "alice")

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.InDelta(t, time.Hour.Seconds(), blacklist.revoked[claims.ID].Seconds(), 5)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	fresh, err := svc.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, fresh)
	assert.NoError(t, err)
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, db, "alice")

	err := svc.SetPassword(ctx, user.ID, "wrong", "new-password-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	require.NoError(t, svc.SetPassword(ctx, user.ID, testhelpers.TestPassword, "new-password-1"))

	_, err = svc.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, user.Email, "new-password-1")
	assert.NoError(t, err)
}
