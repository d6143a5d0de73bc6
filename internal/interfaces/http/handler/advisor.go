package handler

import (
	"github.com/gin-gonic/gin"

	advisorapp "github.com/sellerdesk/backend/internal/application/advisor"
)

// AdvisorHandler handles sales velocity and reorder API endpoints
type AdvisorHandler struct {
	BaseHandler
	aggregator *advisorapp.Aggregator
	advisor    *advisorapp.Advisor
}

// NewAdvisorHandler creates a new AdvisorHandler
func NewAdvisorHandler(aggregator *advisorapp.Aggregator, advisor *advisorapp.Advisor) *AdvisorHandler {
	return &AdvisorHandler{
		aggregator: aggregator,
		advisor:    advisor,
	}
}

// RegisterRoutes registers the analytics routes
func (h *AdvisorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	analytics.POST("/sales-velocity", h.SalesVelocity)
	analytics.POST("/reorder", h.Reorder)
}

// SalesVelocity computes trailing-window sold quantities per sku
func (h *AdvisorHandler) SalesVelocity(c *gin.Context) {
	var req advisorapp.VelocityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(req.SKUs) == 0 {
		h.BadRequest(c, "at least one sku is required")
		return
	}

	reports, err := h.aggregator.SoldLastNMonths(c.Request.Context(), req.SKUs, req.Months)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, reports)
}

// Reorder computes the reorder recommendation for one warehouse item
func (h *AdvisorHandler) Reorder(c *gin.Context) {
	var req advisorapp.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := h.advisor.Recommend(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, rec)
}
