package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	exportapp "github.com/multipos/console/internal/application/export"
	exportdomain "github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/interfaces/http/dto"
	"github.com/multipos/console/internal/interfaces/http/middleware"
)

// Exporter renders datasets; *exportapp.Service implements it.
type Exporter interface {
	Export(ctx context.Context, ds exportapp.Dataset, req exportapp.Request) (exportapp.Result, error)
	History(ctx context.Context, filter exportdomain.Filter) ([]exportdomain.Record, int64, error)
	CanStore() bool
}

// ExportHandler turns screens into files.
type ExportHandler struct {
	BaseHandler
	exporter Exporter
}

func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export handles GET /exports/:resource. The resource is a screen name;
// the export covers what the screen holds, loading it first if needed.
// With store=true the file goes to object storage and the answer carries
// a presigned URL instead of the file.
func (h *ExportHandler) Export(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	format, err := exportdomain.ParseFormat(req.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	v, found := ws.Screen(c.Param("resource"))
	if !found {
		h.NotFound(c, "Unknown screen "+c.Param("resource"))
		return
	}
	if !h.allow(c, p, ws, v.Resource(), identity.ActExport) {
		return
	}
	ctx := c.Request.Context()
	if err := ws.Ensure(ctx, v); err != nil {
		h.HandleError(c, err)
		return
	}
	ds, err := ws.Dataset(v.Name())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.exporter.Export(ctx, ds, exportapp.Request{Format: format, Principal: p, Store: req.Store})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Store {
		h.Success(c, res)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(res.Rows))
	if res.RecordID != "" {
		c.Header("X-Export-Record", res.RecordID)
	}
	c.Data(http.StatusOK, res.ContentType, res.Body)
}

// History handles GET /exports/history. Admins see the whole company,
// everyone else their own exports.
func (h *ExportHandler) History(c *gin.Context) {
	p, _, ok := h.session(c)
	if !ok {
		return
	}
	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter := exportdomain.Filter{
		CompanyID: p.CompanyID,
		Resource:  c.Query("resource"),
		Page:      page.Page,
		PageSize:  page.PageSize,
		SortBy:    page.SortBy,
		SortOrder: page.SortOrder,
	}
	if !p.Role.IsAdmin() {
		filter.UserID = p.UserID
	}
	filter = filter.Normalize()

	records, total, err := h.exporter.History(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
