package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/irisdrone/library/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(now time.Time) *Issuer {
	i := NewIssuer("test-secret", time.Hour)
	i.now = func() time.Time { return now }
	return i
}

func TestIssueVerify(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	i := newTestIssuer(now)

	token, err := i.Issue("alice@example.com", models.RoleAdmin)
	require.NoError(t, err)

	id, err := i.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "alice@example.com", Role: models.RoleAdmin}, id)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	i := newTestIssuer(now)

	valid, err := i.Issue("bob", models.RoleUser)
	require.NoError(t, err)

	expired := newTestIssuer(now.Add(-2 * time.Hour))
	expiredToken, err := expired.Issue("bob", models.RoleUser)
	require.NoError(t, err)

	otherKey := NewIssuer("other-secret", time.Hour)
	otherKey.now = i.now
	forged, err := otherKey.Issue("bob", models.RoleAdmin)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "Root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "not.a.token"},
		{name: "tampered", token: valid + "x"},
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: forged},
		{name: "unknown role", token: badRole},
		{name: "no expiry", token: noExpiry},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := i.Verify(tc.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	i := newTestIssuer(time.Now())
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = i.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAllow(t *testing.T) {
	admin := Identity{Username: "a", Role: models.RoleAdmin}
	user := Identity{Username: "u", Role: models.RoleUser}

	assert.NoError(t, Allow(admin))
	assert.NoError(t, Allow(user))
	assert.NoError(t, Allow(admin, models.RoleAdmin))
	assert.ErrorIs(t, Allow(user, models.RoleAdmin), ErrForbidden)
	assert.NoError(t, Allow(user, models.RoleAdmin, models.RoleUser))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("adminpass")
	require.NoError(t, err)
	assert.NotEqual(t, "adminpass", hash)

	assert.NoError(t, CheckPassword(hash, "adminpass"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrUnauthenticated)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "adminpass"), ErrUnauthenticated)

	again, err := HashPassword("adminpass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}
