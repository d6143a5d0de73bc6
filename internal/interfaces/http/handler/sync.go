package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	syncapp "github.com/sellerdesk/backend/internal/application/sync"
)

// SyncHandler handles sync run API endpoints
type SyncHandler struct {
	BaseHandler
	orchestrator *syncapp.Orchestrator
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *syncapp.Orchestrator) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	runs := rg.Group("/sync/runs")
	runs.POST("", h.Start)
	runs.GET("", h.List)
	runs.GET("/:id", h.Get)
}

// Start launches sync runs and returns their ids immediately; the runs
// execute in the background
func (h *SyncHandler) Start(c *gin.Context) {
	var req syncapp.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	views, err := h.orchestrator.Start(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, syncapp.ErrAlreadyRunning) {
			h.Conflict(c, err.Error())
			return
		}
		h.DomainError(c, err)
		return
	}
	h.Accepted(c, views)
}

// Get returns one sync run by id
func (h *SyncHandler) Get(c *gin.Context) {
	view, err := h.orchestrator.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, view)
}

// List returns sync runs matching the query filters
func (h *SyncHandler) List(c *gin.Context) {
	req := syncapp.ListRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	views, total, err := h.orchestrator.ListRuns(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, total, req.Page, req.PageSize)
}
