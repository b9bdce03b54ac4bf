package jwt

import (
	"errors"
	"taskwire/internal/entity"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrWeakSecret     = errors.New("jwt secret must be at least 32 characters")
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
)

const minSecretLength = 32

// Claims is the token payload shared with the auth service. The subject is
// the numeric user id; the segment format, HS256 MAC and claim names are a
// cross-process contract and must not change independently here.
type Claims struct {
	UserId int64 `json:"sub"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey      string
	accessTokenTTL time.Duration
}

// NewTokenManager fails when the shared secret is shorter than 32 characters
// so a weak deployment configuration is caught at startup, not per token.
func NewTokenManager(secretKey string, accessTokenTTL time.Duration) (*TokenManager, error) {
	if len(secretKey) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &TokenManager{
		secretKey:      secretKey,
		accessTokenTTL: accessTokenTTL,
	}, nil
}

// Issue generates a signed access token for the given user.
func (m *TokenManager) Issue(userId int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Validate checks the signature and expiry of an access token and extracts
// the subject identity.
func (m *TokenManager) Validate(tokenString string) (*entity.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secretKey), nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserId <= 0 {
		return nil, ErrInvalidToken
	}

	out := &entity.TokenClaims{
		UserId:  claims.UserId,
		TokenId: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
