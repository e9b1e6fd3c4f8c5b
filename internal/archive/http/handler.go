package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/archive"
	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/export"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/planning"
)

type ArchiveService interface {
	Archive(ctx context.Context, actor string, year, month int, format string) (*archive.Record, error)
	List(ctx context.Context, year, limit int) ([]archive.Record, error)
	Get(ctx context.Context, id string) (*archive.Record, error)
}

type Handler struct {
	archive ArchiveService
}

func New(svc ArchiveService) *Handler {
	return &Handler{archive: svc}
}

// Register mounts /archive below rg. The archive section is for
// dispatchers and admins.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/archive", middleware.RequireRole(domain.RoleDisp))
	g.GET("", h.List)
	g.POST("/:year/:month", h.Create)
	g.GET("/:id/download", h.Download)
}

func (h *Handler) Create(c *gin.Context) {
	year, month, err := planning.ParseMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	s, _ := auth.SessionFrom(c)
	rec, err := h.archive.Archive(c.Request.Context(), s.UID, year, month, c.DefaultQuery("format", "pdf"))
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"ok": true, "entry": rec})
	case errors.Is(err, export.ErrUnknownFormat), errors.Is(err, planning.ErrInvalidMonth):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("archive failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Archivierung fehlgeschlagen"})
	}
}

func (h *Handler) List(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.archive.List(c.Request.Context(), year, limit)
	if err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Error("list archive failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

func (h *Handler) Download(c *gin.Context) {
	rec, err := h.archive.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
			return
		}
		logging.FromContext(c.Request.Context()).WithError(err).Error("load archive entry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rec.FileName))
	c.Data(http.StatusOK, rec.ContentType, rec.Data)
}
