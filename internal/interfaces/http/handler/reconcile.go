package handler

import (
	"github.com/gin-gonic/gin"

	reconcileapp "github.com/sellerdesk/backend/internal/application/reconcile"
	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// ReconcileHandler handles duplicate group API endpoints
type ReconcileHandler struct {
	BaseHandler
	engine *reconcileapp.Engine
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(engine *reconcileapp.Engine) *ReconcileHandler {
	return &ReconcileHandler{engine: engine}
}

// RegisterRoutes registers the duplicate routes
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	duplicates := rg.Group("/duplicates")
	duplicates.GET("", h.List)
	duplicates.POST("/detect", h.Detect)
	duplicates.POST("/:id/resolve", h.Resolve)
}

// List returns duplicate groups, optionally filtered by resolution status
func (h *ReconcileHandler) List(c *gin.Context) {
	req := reconcileapp.ListRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	views, total, err := h.engine.List(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, total, req.Page, req.PageSize)
}

// Detect scans the catalog and records duplicate groups
func (h *ReconcileHandler) Detect(c *gin.Context) {
	views, err := h.engine.Detect(c.Request.Context())
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, views)
}

// Resolve applies a resolution strategy to one group
func (h *ReconcileHandler) Resolve(c *gin.Context) {
	var req reconcileapp.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.engine.Resolve(c.Request.Context(), c.Param("id"), marketplace.ResolutionStrategy(req.Strategy))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, view)
}
