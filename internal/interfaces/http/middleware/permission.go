package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

// RequireCapability rejects callers whose role, widened by their scope
// settings, lacks action on resource. This only saves a round trip; the
// POS API enforces the same rules.
func RequireCapability(resource identity.Resource, action identity.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkCapability(c, resource, action)
	}
}

// RequireParamCapability reads the resource from a path parameter.
func RequireParamCapability(param string, action identity.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, ok := identity.ParseResource(c.Param(param))
		if !ok {
			abort(c, http.StatusNotFound, dto.ErrCodeNotFound, "Unknown resource "+c.Param(param))
			return
		}
		checkCapability(c, res, action)
	}
}

func checkCapability(c *gin.Context, resource identity.Resource, action identity.Action) {
	p, ok := GetPrincipal(c)
	ws := GetWorkspace(c)
	if !ok || ws == nil {
		abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	flags := ws.Flags(c.Request.Context())
	if !p.Can(resource, action, flags) {
		logger.L(c.Request.Context()).Info("capability denied",
			zap.String("role", string(p.Role)),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)))
		abort(c, http.StatusForbidden, dto.ErrCodeForbidden,
			"Your role cannot "+string(action)+" "+string(resource))
		return
	}
	c.Next()
}
