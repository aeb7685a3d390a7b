// README: Bearer token verification contract shared by the JWT and Firebase verifiers.
package infra

import "context"

// VerifiedToken holds the verified token data used by downstream middleware.
type VerifiedToken struct {
	Subject string
	Email   string
	Name    string
	Claims  map[string]interface{}
}

// Role returns the "role" claim, or "" when absent.
func (t *VerifiedToken) Role() string {
	role, _ := t.Claims["role"].(string)
	return role
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error)
}
