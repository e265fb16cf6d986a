package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer(testSecret, "tutter", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue("user-1", "ann")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ann", claims.Username)

	// Bearer prefix is accepted
	claims, err = issuer.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewIssuer(testSecret, "tutter", time.Minute)
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue("user-1", "")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsWrongSecretAndIssuer(t *testing.T) {
	issuer, err := NewIssuer(testSecret, "tutter", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), "tutter", time.Hour)
	require.NoError(t, err)
	foreign, err := NewIssuer(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)

	token, _, err := other.Issue("user-1", "")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, _, err = foreign.Issue("user-1", "")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	issuer, err := NewIssuer(testSecret, "tutter", time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "tutter",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Validation(t *testing.T) {
	_, err := NewIssuer([]byte("short"), "tutter", time.Hour)
	assert.Error(t, err)

	issuer, err := NewIssuer(testSecret, "tutter", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)

	_, _, err = issuer.Issue("", "")
	assert.Error(t, err)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
