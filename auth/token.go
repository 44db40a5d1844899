package auth

import (
	"fmt"

	"chat-relay/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the data the relay expects inside a credential.
// Token issuance happens in the account service; the relay only
// verifies.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 credentials signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret []byte, issuer string) Verifier {
	return Verifier{secret: secret, issuer: issuer}
}

// Verify parses and validates signature, expiration and issuer, and
// returns the verified user identity.
func (v Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrAuthenticationFailed, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrAuthenticationFailed
	}
	return claims.UserID, nil
}

// GenerateToken creates a signed credential. The relay does not issue
// tokens in production; this exists for provisioning and tests.
func GenerateToken(secret []byte, issuer, userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Issuer = issuer
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{
		UserID:           userID,
		RegisteredClaims: claims,
	})
	return token.SignedString(secret)
}
