package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/catalog"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
)

func (h *Handler) ListShiftTypes(c *gin.Context) {
	types, err := h.catalog.ShiftTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "shiftTypes": types})
}

func (h *Handler) CreateShiftType(c *gin.Context) {
	var req shiftTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	st, err := h.catalog.CreateShiftType(c.Request.Context(), actor(c), req.toDomain(req.ID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "shiftType": st})
}

func (h *Handler) UpdateShiftType(c *gin.Context) {
	var req shiftTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	st, err := h.catalog.UpdateShiftType(c.Request.Context(), actor(c), req.toDomain(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "shiftType": st})
}

func (h *Handler) DeleteShiftType(c *gin.Context) {
	if err := h.catalog.DeleteShiftType(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListVehicles(c *gin.Context) {
	vs, err := h.catalog.Vehicles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "vehicles": vs})
}

func (h *Handler) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := h.catalog.CreateVehicle(c.Request.Context(), actor(c), req.toDomain(req.ID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "vehicle": v})
}

func (h *Handler) UpdateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := h.catalog.UpdateVehicle(c.Request.Context(), actor(c), req.toDomain(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "vehicle": v})
}

func (h *Handler) DeleteVehicle(c *gin.Context) {
	if err := h.catalog.DeleteVehicle(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func actor(c *gin.Context) string {
	s, _ := auth.SessionFrom(c)
	return s.UID
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "id already exists"})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("catalog request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
