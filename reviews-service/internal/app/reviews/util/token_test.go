package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", 15*time.Minute)
	adminID := uuid.New()
	permissions := []string{"review.view", "review.change", "review.delete"}

	raw, err := issuer.Issue(adminID, "admin", "admin", permissions)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)

	id, err := claims.AdminID()
	require.NoError(t, err)
	assert.Equal(t, adminID, id)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, permissions, claims.Permissions)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasPermission("review.change"))
	assert.False(t, claims.HasPermission("review.add"))
}

func TestTokenIssuer_UniqueTokenIDs(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", time.Minute)
	adminID := uuid.New()

	first, err := issuer.Issue(adminID, "admin", "admin", nil)
	require.NoError(t, err)
	second, err := issuer.Issue(adminID, "admin", "admin", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenIssuer_Parse_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	raw, err := issuer.Issue(uuid.New(), "admin", "admin", nil)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_Parse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", time.Minute)

	foreign, err := NewTokenIssuer("other-secret", time.Minute).Issue(uuid.New(), "admin", "admin", nil)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  tokenIssuer,
			Subject: uuid.NewString(),
		},
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"alg none":       unsigned,
		"missing sub":    noSubject,
		"missing expiry": noExpiry,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenIssuer_TTL(t *testing.T) {
	assert.Equal(t, 30*time.Minute, NewTokenIssuer("s", 30*time.Minute).TTL())
}
