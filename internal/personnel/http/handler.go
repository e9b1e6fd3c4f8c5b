package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/personnel"
)

type PersonnelService interface {
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, actor, uid string, upd docstore.UserUpdate) (*domain.User, error)
}

type Handler struct {
	personnel PersonnelService
}

func New(svc PersonnelService) *Handler {
	return &Handler{personnel: svc}
}

// Register mounts /personnel below rg: listing for dispatchers and up,
// changes for admins.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/personnel")
	g.GET("", middleware.RequireRole(domain.RoleDisp), h.List)
	g.PATCH("/:uid", middleware.RequireRole(domain.RoleAdmin), h.Update)
}

type updateRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=80"`
	Role        *string `json:"role" binding:"omitempty,oneof=personal disp admin"`
	IsActive    *bool   `json:"isActive"`
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.personnel.List(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Error("list personnel failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": users})
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	upd := docstore.UserUpdate{DisplayName: req.DisplayName, IsActive: req.IsActive}
	if req.Role != nil {
		role, _ := domain.ParseRole(*req.Role)
		upd.Role = &role
	}

	s, _ := auth.SessionFrom(c)
	u, err := h.personnel.Update(c.Request.Context(), s.UID, c.Param("uid"), upd)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
	case errors.Is(err, personnel.ErrEmptyUpdate), errors.Is(err, personnel.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, personnel.ErrSelfLockout):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("update personnel failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
