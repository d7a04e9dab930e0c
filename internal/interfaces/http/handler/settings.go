package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
)

// SettingsHandler reads and writes branch and warehouse settings.
type SettingsHandler struct {
	BaseHandler
}

func NewSettingsHandler() *SettingsHandler { return &SettingsHandler{} }

func (h *SettingsHandler) scope(c *gin.Context) (shared.Scope, bool) {
	st, err := shared.ParseScopeType(c.Param("scopeType"))
	if err == nil {
		var s shared.Scope
		if s, err = shared.NewScope(st, c.Param("scopeId")); err == nil {
			return s, true
		}
	}
	h.HandleError(c, err)
	return shared.Scope{}, false
}

// Get handles GET /settings/:scopeType/:scopeId.
func (h *SettingsHandler) Get(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	settings, err := ws.Scopes.Settings(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update handles PUT /settings/:scopeType/:scopeId with a partial body.
func (h *SettingsHandler) Update(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var in organization.SettingsInput
	if !h.BindJSON(c, &in) {
		return
	}
	settings, err := ws.Scopes.UpdateSettings(c.Request.Context(), scope, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
