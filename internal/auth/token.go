package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 24 * 7 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Revoker reports whether a token id has been revoked before its expiry.
type Revoker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type TokenVerifier struct {
	secret  []byte
	issuer  string
	revoker Revoker
}

// NewTokenVerifier verifies HS256 tokens signed with secret. Issuer is
// checked only when non-empty; revoker may be nil.
func NewTokenVerifier(secret, issuer string, revoker Revoker) *TokenVerifier {
	return &TokenVerifier{
		secret:  []byte(secret),
		issuer:  issuer,
		revoker: revoker,
	}
}

func (v *TokenVerifier) UserID(ctx context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	if v.revoker != nil && claims.ID != "" {
		revoked, err := v.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return "", ErrRevokedToken
		}
	}

	return claims.UserID, nil
}

// GenerateToken signs a token for userID. The API has no endpoint issuing
// tokens; this serves tests and the local token helper.
func GenerateToken(secret, issuer, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
