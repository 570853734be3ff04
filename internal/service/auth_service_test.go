package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/infrastructure"
)

const testSecret = "test-secret"

func newAuthService() *AuthService {
	return NewAuthService(&infrastructure.JWTConfig{SecretKey: testSecret}, zap.NewNop())
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateAccessToken(t *testing.T) {
	svc := newAuthService()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":    "42",
		"name":   "Feliks",
		"wca_id": "2010ZEMD01",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	ident, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ident.UserID)
	assert.Equal(t, "Feliks", ident.Name)
	assert.Equal(t, "2010ZEMD01", ident.WCAID)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	svc := newAuthService()
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "exp": future})},
		{"expired", signToken(t, testSecret, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"missing sub", signToken(t, testSecret, jwt.MapClaims{"exp": future})},
		{"non-numeric sub", signToken(t, testSecret, jwt.MapClaims{"sub": "feliks", "exp": future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
