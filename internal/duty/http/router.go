package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Register mounts the duty list below rg. Every role may read it; writing
// needs Disp or higher.
func (h *Handler) Register(rg *gin.RouterGroup) {
	disp := middleware.RequireRole(domain.RoleDisp)

	duty := rg.Group("/duty", middleware.RequireSession())
	duty.GET("", h.List)
	duty.GET("/stream", h.Stream)
	duty.POST("", disp, h.Create)
	duty.PUT("/:id", disp, h.Update)
	duty.DELETE("/:id", disp, h.Delete)
}
