package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

// FormatLister reports the export formats with a renderer.
type FormatLister interface {
	Formats() []export.Format
}

// CapabilityHandler tells a client which controls to show.
type CapabilityHandler struct {
	BaseHandler
	formats FormatLister
}

func NewCapabilityHandler(formats FormatLister) *CapabilityHandler {
	return &CapabilityHandler{formats: formats}
}

// Get handles GET /capabilities. scopeType and scopeId evaluate the
// matrix under another scope's settings, e.g. before switching branch.
func (h *CapabilityHandler) Get(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	scope := p.Scope
	if st := c.Query("scopeType"); st != "" {
		parsed, err := shared.ParseScopeType(st)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		scope = shared.Scope{Type: parsed, ID: c.Query("scopeId")}
	}
	flags := ws.Scopes.Flags(c.Request.Context(), scope)

	matrix := identity.MatrixFor(p.Role, flags)
	caps := make(map[string][]string, len(matrix))
	for res, acts := range matrix {
		names := make([]string, len(acts))
		for i, a := range acts {
			names[i] = string(a)
		}
		caps[string(res)] = names
	}
	var formats []string
	if h.formats != nil {
		for _, f := range h.formats.Formats() {
			formats = append(formats, string(f))
		}
	}

	h.Success(c, dto.CapabilitiesResponse{
		Role:         string(p.Role),
		Scope:        scope.String(),
		Flags:        flags,
		Capabilities: caps,
		CreditSales:  identity.CanSellOnCredit(p.Role, flags),
		Screens:      ws.Screens(),
		Formats:      formats,
	})
}
