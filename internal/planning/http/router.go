package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Register mounts the plan routes below rg. Every route needs a session;
// the edit endpoints answer 403 for read-only roles.
func (h *Handler) Register(rg *gin.RouterGroup) {
	plan := rg.Group("/plan/:year/:month", middleware.RequireSession())

	plan.GET("", h.GetMonth)
	plan.GET("/stream", h.StreamMonth)
	plan.GET("/export", h.ExportMonth)
	plan.GET("/audit", middleware.RequireRole(domain.RoleDisp), h.ListAudit)

	cells := plan.Group("/cells/:uid/:date")
	cells.GET("/picker", h.GetPicker)
	cells.PUT("", h.AssignCell)
	cells.DELETE("", h.ClearCell)
}
