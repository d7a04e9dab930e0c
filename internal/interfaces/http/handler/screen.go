package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/infrastructure/apiclient"
)

// ScreenHandler serves screen snapshots.
type ScreenHandler struct {
	BaseHandler
}

func NewScreenHandler() *ScreenHandler { return &ScreenHandler{} }

// List handles GET /screens and returns the screens the caller may read.
func (h *ScreenHandler) List(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	flags := ws.Flags(c.Request.Context())
	names := []string{}
	for _, name := range ws.Screens() {
		v, _ := ws.Screen(name)
		if p.Can(v.Resource(), identity.ActRead, flags) {
			names = append(names, name)
		}
	}
	h.Success(c, names)
}

// Get handles GET /screens/:screen. Query parameters become the filters;
// a request without filters reuses the current ones and only fetches when
// the screen never loaded or refresh=true. A failed fetch still answers
// 200 with the previous data and the error in the snapshot, unless the
// POS API refused the caller.
func (h *ScreenHandler) Get(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	v, found := ws.Screen(c.Param("screen"))
	if !found {
		h.NotFound(c, "Unknown screen "+c.Param("screen"))
		return
	}
	if !h.allow(c, p, ws, v.Resource(), identity.ActRead) {
		return
	}

	params := c.Request.URL.Query()
	refresh, _ := strconv.ParseBool(params.Get("refresh"))
	params.Del("refresh")

	ctx := c.Request.Context()
	var err error
	switch {
	case len(params) > 0:
		err = v.SetFilters(ctx, query.FromValues(params))
	case refresh || !v.Loaded():
		err = v.Refresh(ctx)
	}
	if err != nil && !keepsSnapshot(err) {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v.Snapshot(p, ws.Flags(ctx)))
}

// keepsSnapshot is true for fetch failures the slice already recorded.
func keepsSnapshot(err error) bool {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode != http.StatusUnauthorized && apiErr.StatusCode != http.StatusForbidden
	}
	var netErr *apiclient.NetworkError
	return errors.As(err, &netErr)
}
