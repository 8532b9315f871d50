package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/medcontent/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestJWTService(expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := newTestJWTService(24)
	ownerID := uuid.New()

	token, err := service.GenerateToken(ownerID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, claims.GetOwnerID())
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_TokensAreUnique(t *testing.T) {
	service := newTestJWTService(24)
	ownerID := uuid.New()

	first, err := service.GenerateToken(ownerID)
	require.NoError(t, err)
	second, err := service.GenerateToken(ownerID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	service := newTestJWTService(24)
	other := NewJWTService(&config.JWTConfig{Secret: "different-secret-key-for-jwt-signing-minimum-32-bytes", ExpirationHours: 24})

	foreign, err := other.GenerateToken(uuid.New())
	require.NoError(t, err)

	expired := signClaims(t, &Claims{
		OwnerID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})

	noExpiry := signClaims(t, &Claims{OwnerID: uuid.New()})

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{OwnerID: uuid.New()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"one part", "invalid", "malformed"},
		{"two parts", "invalid.token", "malformed"},
		{"bad base64", "invalid.base64.signature", "malformed"},
		{"wrong secret", foreign, "signature"},
		{"expired", expired, "expired"},
		{"alg none", none, "signature"},
		{"no expiry", noExpiry, "failed to parse token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJWTService_ValidateToken_Empty(t *testing.T) {
	_, err := newTestJWTService(1).ValidateToken("")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := newTestJWTService(1)
	ownerID := uuid.New()
	token, err := service.GenerateToken(ownerID)
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, got.GetOwnerID())

	_, err = service.AsTokenValidator().ValidateToken("nope")
	assert.Error(t, err)
}

func signClaims(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
