package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/inventory"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/trade"
)

// ResourceHandler passes mutations through the workspace slices, so the
// caller's next snapshot already contains the change. Capability checks
// run in the router.
type ResourceHandler struct {
	BaseHandler
}

func NewResourceHandler() *ResourceHandler { return &ResourceHandler{} }

// Create handles POST /resources/:resource.
func (h *ResourceHandler) Create(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	res, _ := identity.ParseResource(c.Param("resource"))
	switch res {
	case identity.ResCompanies:
		created(h, c, ws.Companies.Create)
	case identity.ResPOS:
		created(h, c, ws.POS.CreateTerminal)
	case identity.ResInventory:
		created(h, c, ws.Inventory.Create)
	case identity.ResHeldBills:
		created(h, c, ws.POS.Hold)
	case identity.ResSales:
		flags := ws.Flags(c.Request.Context())
		created(h, c, func(ctx context.Context, in trade.SaleInput) (trade.Sale, error) {
			return ws.Sales.Create(ctx, p, flags, in)
		})
	default:
		h.unsupported(c, res, "create")
	}
}

// Update handles PUT /resources/:resource/:id.
func (h *ResourceHandler) Update(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("id")
	res, _ := identity.ParseResource(c.Param("resource"))
	switch res {
	case identity.ResCompanies:
		updated(h, c, func(ctx context.Context, in organization.CompanyInput) (organization.Company, error) {
			return ws.Companies.Update(ctx, id, in)
		})
	case identity.ResPOS:
		updated(h, c, func(ctx context.Context, in pos.TerminalInput) (pos.Terminal, error) {
			return ws.POS.UpdateTerminal(ctx, id, in)
		})
	case identity.ResInventory:
		updated(h, c, func(ctx context.Context, in inventory.ItemInput) (inventory.Item, error) {
			return ws.Inventory.Update(ctx, id, in)
		})
	default:
		h.unsupported(c, res, "update")
	}
}

// Delete handles DELETE /resources/:resource/:id. Deleting a held bill
// resumes it, which is how the POS API releases one.
func (h *ResourceHandler) Delete(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()
	res, _ := identity.ParseResource(c.Param("resource"))

	var err error
	switch res {
	case identity.ResCompanies:
		err = ws.Companies.Delete(ctx, id)
	case identity.ResPOS:
		err = ws.POS.DeleteTerminal(ctx, id)
	case identity.ResInventory:
		err = ws.Inventory.Delete(ctx, id)
	case identity.ResHeldBills:
		var bill pos.HeldBill
		if bill, err = ws.POS.Resume(ctx, id); err == nil {
			h.Success(c, bill)
			return
		}
	default:
		h.unsupported(c, res, "delete")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *ResourceHandler) unsupported(c *gin.Context, res identity.Resource, verb string) {
	h.NotFound(c, "Cannot "+verb+" "+string(res)+" through this endpoint")
}

func created[In, Out any](h *ResourceHandler, c *gin.Context, fn func(context.Context, In) (Out, error)) {
	var in In
	if !h.BindJSON(c, &in) {
		return
	}
	out, err := fn(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

func updated[In, Out any](h *ResourceHandler, c *gin.Context, fn func(context.Context, In) (Out, error)) {
	var in In
	if !h.BindJSON(c, &in) {
		return
	}
	out, err := fn(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
