package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Register mounts the catalog routes below rg. Reading is open to every
// signed-in role since the grid legend needs it; changes are admin-only.
func (h *Handler) Register(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(domain.RoleAdmin)

	shiftTypes := rg.Group("/shift-types", middleware.RequireSession())
	shiftTypes.GET("", h.ListShiftTypes)
	shiftTypes.POST("", admin, h.CreateShiftType)
	shiftTypes.PUT("/:id", admin, h.UpdateShiftType)
	shiftTypes.DELETE("/:id", admin, h.DeleteShiftType)

	vehicles := rg.Group("/vehicles", middleware.RequireSession())
	vehicles.GET("", h.ListVehicles)
	vehicles.POST("", admin, h.CreateVehicle)
	vehicles.PUT("/:id", admin, h.UpdateVehicle)
	vehicles.DELETE("/:id", admin, h.DeleteVehicle)
}
