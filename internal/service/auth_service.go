package service

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/infrastructure"
)

// AuthService validates bearer tokens minted by the identity provider.
// The provider signs HS256 tokens with a shared secret; this service never
// issues tokens itself.
type AuthService struct {
	jwtConfig *infrastructure.JWTConfig
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(jwtConfig *infrastructure.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtConfig: jwtConfig,
		logger:    logger,
	}
}

// Identity is the competitor identity carried in a validated token.
type Identity struct {
	UserID int64
	Name   string
	WCAID  string
}

// ValidateAccessToken validates an access token and returns the identity it
// carries. The numeric user id lives in the sub claim.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Identity, error) {
	var opts []jwt.ParserOption
	if s.jwtConfig.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.jwtConfig.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(s.jwtConfig.SecretKey), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	ident := &Identity{UserID: userID}
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	if wcaID, ok := claims["wca_id"].(string); ok {
		ident.WCAID = wcaID
	}
	return ident, nil
}
