package util

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "reviews-service"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// AdminClaims - содержимое токена администратора. Subject хранит id администратора, ID - уникальный jti.
type AdminClaims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) AdminID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *AdminClaims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// TokenIssuer выпускает и проверяет HS256 токены админки
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key: []byte(secret),
		ttl: ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
		now: time.Now,
	}
}

func (i *TokenIssuer) Issue(adminID uuid.UUID, username, role string, permissions []string) (string, error) {
	issuedAt := i.now()
	claims := &AdminClaims{
		Username:    username,
		Role:        role,
		Permissions: slices.Clone(permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   adminID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Parse возвращает ErrExpiredToken для просроченного токена и ErrInvalidToken для всего остального
func (i *TokenIssuer) Parse(raw string) (*AdminClaims, error) {
	claims := new(AdminClaims)
	_, err := i.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if _, err := claims.AdminID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}
