package middleware

import (
	"context"
	"strconv"
	"strings"

	"matholymp/internal/common/auth"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/contextkey"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// Auth modes.
const (
	AuthPublic    = "public"
	AuthOptional  = "optional"
	AuthProtected = "protected"
)

// AuthPolicy selects how a route group treats credentials. In optional mode
// a valid token is attached when present and a missing one is ignored.
type AuthPolicy struct {
	Mode  string
	Roles []string
}

const (
	principalContextKey = "principal"
	userIDContextKey    = "user_id"
)

// AuthMiddleware validates the bearer token and enforces role checks.
func AuthMiddleware(authn Authenticator, policy AuthPolicy) gin.HandlerFunc {
	mode := strings.ToLower(policy.Mode)
	return func(c *gin.Context) {
		if mode == AuthPublic {
			c.Next()
			return
		}
		if authn == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" && mode == AuthOptional {
			c.Next()
			return
		}
		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		if len(policy.Roles) > 0 && !hasAnyRole(principal, policy.Roles) {
			response.AbortWithErrorCode(c, pkgerrors.InsufficientPermission, "insufficient role")
			return
		}

		userID := strconv.FormatInt(principal.UserID, 10)
		c.Set(userIDContextKey, userID)
		c.Set(principalContextKey, principal)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, userID)
		c.Request = c.Request.WithContext(auth.WithPrincipal(ctx, principal))
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func hasAnyRole(p auth.Principal, allowed []string) bool {
	for _, role := range allowed {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}
