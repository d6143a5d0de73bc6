package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sellerdesk/backend/internal/interfaces/http/dto"
)

// Pinger checks a dependency's liveness
type Pinger interface {
	Ping() error
}

// SystemHandler handles health endpoints
type SystemHandler struct {
	BaseHandler
	db Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// RegisterHealthRoutes registers the health routes on the engine root,
// outside the versioned API group
func (h *SystemHandler) RegisterHealthRoutes(engine *gin.Engine) {
	engine.GET("/healthz", h.Health)
}

// Health reports process and database liveness
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("DB_UNAVAILABLE", err.Error()))
		return
	}
	h.Success(c, gin.H{"status": "ok"})
}
