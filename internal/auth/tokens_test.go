package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	memberID := uint(7)

	token, claims, err := issuer.Issue(&entities.User{ID: 3, Username: "alice@example.com", Role: entities.UserRoleMember, MemberID: &memberID})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), parsed.UserID)
	assert.Equal(t, "alice@example.com", parsed.Username)
	assert.Equal(t, entities.UserRoleMember, parsed.Role)
	require.NotNil(t, parsed.MemberID)
	assert.Equal(t, uint(7), *parsed.MemberID)
	assert.Equal(t, claims.ID, parsed.ID)

	p := parsed.Principal()
	assert.Equal(t, uint(3), p.UserID)
	assert.False(t, p.IsLibrarian())
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &entities.User{ID: 1, Username: "admin", Role: entities.UserRoleLibrarian}

	_, first, err := issuer.Issue(user)
	require.NoError(t, err)
	_, second, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &entities.User{ID: 1, Username: "admin", Role: entities.UserRoleLibrarian}

	t.Run("empty token", func(t *testing.T) {
		_, err := issuer.Parse("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenIssuer("other-secret", time.Hour).Issue(user)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer("test-secret", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unsigned token", func(t *testing.T) {
		claims := &Claims{
			UserID: 1, Username: "admin", Role: entities.UserRoleLibrarian,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "abc",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing token id", func(t *testing.T) {
		claims := &Claims{
			UserID: 1, Username: "admin", Role: entities.UserRoleLibrarian,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer_DefaultExpiry(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewTokenIssuer("s", 0).TTL())
	assert.Equal(t, time.Minute, NewTokenIssuer("s", time.Minute).TTL())
}
