package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/domain/pos"
)

// POSHandler covers held bills and terminal tabs.
type POSHandler struct {
	BaseHandler
}

func NewPOSHandler() *POSHandler { return &POSHandler{} }

// ListHeld handles GET /pos/held; the query string filters.
func (h *POSHandler) ListHeld(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	if err := ws.POS.FetchHeld(c.Request.Context(), query.FromValues(c.Request.URL.Query())); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nonNil(ws.POS.Held().Snapshot().Data))
}

// Hold handles POST /pos/held.
func (h *POSHandler) Hold(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	var in pos.HoldInput
	if !h.BindJSON(c, &in) {
		return
	}
	bill, err := ws.POS.Hold(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// Resume handles POST /pos/held/:id/resume and returns the bill so the
// register can reload its cart.
func (h *POSHandler) Resume(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	bill, err := ws.POS.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// ListTabs handles GET /pos/terminals/:id/tabs.
func (h *POSHandler) ListTabs(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	if err := ws.POS.FetchTabs(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nonNil(ws.POS.Tabs().Snapshot().Data))
}

// OpenTab handles POST /pos/terminals/:id/tabs.
func (h *POSHandler) OpenTab(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	var in pos.TabInput
	if !h.BindJSON(c, &in) {
		return
	}
	tab, err := ws.POS.OpenTab(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tab)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
