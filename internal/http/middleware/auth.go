// README: Bearer auth middleware: verifies the token, resolves the caller and gates superuser routes.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dronebook/internal/infra"
	"dronebook/internal/types"
)

const actorKey = "dronebook.actor"

// ActorResolver maps a verified token to the caller of core operations.
type ActorResolver interface {
	Resolve(ctx context.Context, tok *infra.VerifiedToken) (types.Actor, error)
}

func Auth(verifier infra.TokenVerifier, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tok, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		actor, err := resolver.Resolve(c.Request.Context(), tok)
		switch {
		case errors.Is(err, types.ErrForbidden):
			abort(c, http.StatusForbidden, "inactive user")
			return
		case err != nil:
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "internal error")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// CallerActor returns the actor stored by Auth. The zero Actor is returned on
// routes that are not behind Auth.
func CallerActor(c *gin.Context) types.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return types.Actor{}
	}
	actor, _ := v.(types.Actor)
	return actor
}

func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerActor(c).Superuser {
			abort(c, http.StatusForbidden, "superuser required")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
