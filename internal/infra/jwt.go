// README: HS256 JWT verifier for tokens minted by the companion auth service.
package infra

import (
	"context"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) (TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &jwtVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}, nil
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, raw string) (*VerifiedToken, error) {
	tok, err := v.parser.ParseWithClaims(raw, &jwtClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*jwtClaims)
	if !ok || !tok.Valid || c.Subject == "" {
		return nil, errors.New("invalid claims")
	}
	claims := map[string]interface{}{"role": c.Role}
	return &VerifiedToken{Subject: c.Subject, Email: c.Email, Name: c.Username, Claims: claims}, nil
}
