package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korlin/auditorium/internal/domain"
	"github.com/korlin/auditorium/internal/infrastructure/configs"
)

const testSecret = "unit-test-secret"

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	return NewAuthenticator(configs.AuthConfig{
		Secret: testSecret,
		Leeway: time.Second,
	})
}

func signToken(t *testing.T, secret, role string, expiresIn time.Duration) string {
	t.Helper()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyAdminRole(t *testing.T) {
	a := newTestAuthenticator(t)

	role, err := a.Verify(signToken(t, testSecret, "admin", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestVerifyUserRole(t *testing.T) {
	a := newTestAuthenticator(t)

	role, err := a.Verify(signToken(t, testSecret, "user", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, role)
}

func TestVerifyUnknownRoleDowngradesToUser(t *testing.T) {
	a := newTestAuthenticator(t)

	role, err := a.Verify(signToken(t, testSecret, "superuser", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, role)
}

func TestVerifyExpiredToken(t *testing.T) {
	a := newTestAuthenticator(t)

	_, err := a.Verify(signToken(t, testSecret, "admin", -time.Hour))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSignature(t *testing.T) {
	a := newTestAuthenticator(t)

	_, err := a.Verify(signToken(t, "some-other-secret", "admin", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	a := newTestAuthenticator(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	a := newTestAuthenticator(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIssuerMismatch(t *testing.T) {
	a := NewAuthenticator(configs.AuthConfig{
		Secret: testSecret,
		Issuer: "auditorium",
	})

	// Token signed with the right secret but no issuer claim.
	_, err := a.Verify(signToken(t, testSecret, "admin", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
