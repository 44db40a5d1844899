package auth

import (
	"testing"
	"time"

	"chat-relay/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "chat-relay"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func freshClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func TestVerifier_Verify(t *testing.T) {
	verifier := NewVerifier(testSecret, testIssuer)

	t.Run("should accept a valid token and return its identity", func(t *testing.T) {
		req := require.New(t)

		token, err := GenerateToken(testSecret, testIssuer, "alice", freshClaims(time.Hour))
		req.NoError(err)

		userID, err := verifier.Verify(token)
		req.NoError(err)
		req.Equal("alice", userID)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)

		token, err := GenerateToken([]byte("attacker-controlled-secret-value"), testIssuer, "alice", freshClaims(time.Hour))
		req.NoError(err)

		_, err = verifier.Verify(token)
		req.ErrorIs(err, errors.ErrAuthenticationFailed)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)

		token, err := GenerateToken(testSecret, testIssuer, "alice", freshClaims(-time.Minute))
		req.NoError(err)

		_, err = verifier.Verify(token)
		req.ErrorIs(err, errors.ErrAuthenticationFailed)
	})

	t.Run("should reject a token from another issuer", func(t *testing.T) {
		req := require.New(t)

		token, err := GenerateToken(testSecret, "someone-else", "alice", freshClaims(time.Hour))
		req.NoError(err)

		_, err = verifier.Verify(token)
		req.ErrorIs(err, errors.ErrAuthenticationFailed)
	})

	t.Run("should reject a token without an identity", func(t *testing.T) {
		req := require.New(t)

		token, err := GenerateToken(testSecret, testIssuer, "", freshClaims(time.Hour))
		req.NoError(err)

		_, err = verifier.Verify(token)
		req.ErrorIs(err, errors.ErrAuthenticationFailed)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		req := require.New(t)

		_, err := verifier.Verify("not.a.token")
		req.ErrorIs(err, errors.ErrAuthenticationFailed)
	})
}
