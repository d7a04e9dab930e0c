package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

// Auth context keys
const (
	PrincipalKey = "principal"
	WorkspaceKey = "workspace"
	TokenKey     = "bearer_token"
	AuthHeader   = "Authorization"
)

// Principals reads the caller out of a bearer token.
type Principals interface {
	Principal(token string) (identity.Principal, error)
}

// Workspaces hands out the workspace of a token.
type Workspaces interface {
	Acquire(token string, p identity.Principal) *workspace.Workspace
}

// Authenticate resolves the bearer token into a principal and its
// workspace. The token itself is forwarded upstream unchanged; the POS API
// stays the authority on what the caller may do.
func Authenticate(tokens Principals, workspaces Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader(AuthHeader))
		if !ok {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}
		p, err := tokens.Principal(raw)
		if err != nil {
			code, msg := dto.ErrCodeTokenInvalid, "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, msg = dto.ErrCodeTokenExpired, "Token has expired"
			}
			logger.L(c.Request.Context()).Debug("token rejected", zap.Error(err))
			abort(c, http.StatusUnauthorized, code, msg)
			return
		}

		ws := workspaces.Acquire(raw, p)
		c.Set(TokenKey, raw)
		c.Set(PrincipalKey, p)
		c.Set(WorkspaceKey, ws)

		ctx := logger.WithIdentity(c.Request.Context(), p.CompanyID, p.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetPrincipal returns the caller set by Authenticate.
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok
}

// GetWorkspace returns the workspace set by Authenticate.
func GetWorkspace(c *gin.Context) *workspace.Workspace {
	v, ok := c.Get(WorkspaceKey)
	if !ok {
		return nil
	}
	ws, _ := v.(*workspace.Workspace)
	return ws
}

// GetToken returns the raw bearer token.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
