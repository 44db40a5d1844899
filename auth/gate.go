package auth

import (
	"fmt"
	"net/http"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

// Gate validates the credential presented during the websocket
// handshake and resolves the verified identity's display snapshot.
// Rejection happens before any registration, so a failed handshake
// leaves no partial state behind.
type Gate struct {
	verifier contract.CredentialVerifier
	users    contract.IUserRepository
}

func NewGate(verifier contract.CredentialVerifier, users contract.IUserRepository) Gate {
	return Gate{verifier: verifier, users: users}
}

// Admit extracts the credential (Authorization header, cookie, then
// query parameter; first non-empty wins), verifies it, and loads the
// display-info snapshot that stays attached to the connection for its
// lifetime.
func (g Gate) Admit(r *http.Request) (domain.User, error) {
	token := extractToken(r)
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: no token provided", errors.ErrAuthenticationFailed)
	}

	userID, err := g.verifier.Verify(token)
	if err != nil {
		return domain.User{}, err
	}

	user, err := g.users.FindUser(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: unknown identity", errors.ErrAuthenticationFailed)
	}
	return user, nil
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && header[:len(prefix)] == prefix {
			return header[len(prefix):]
		}
		return header
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}
