package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/export"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/planning"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

func (h *Handler) GetMonth(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}

	v, err := h.plans.Month(c.Request.Context(), year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	v.Editable = auth.RoleFrom(c).CanWrite()
	c.JSON(http.StatusOK, v)
}

func (h *Handler) GetPicker(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}
	anchor := planning.Anchor{X: queryInt(c, "x"), Y: queryInt(c, "y")}

	p, err := h.plans.Picker(c.Request.Context(), editor(c), year, month, c.Param("uid"), c.Param("date"), anchor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AssignCell stores the selected shift type for the cell.
func (h *Handler) AssignCell(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "shiftTypeId is required"})
		return
	}

	a, err := h.plans.Assign(c.Request.Context(), editor(c), planning.AssignRequest{
		Year:        year,
		Month:       month,
		UID:         c.Param("uid"),
		Date:        c.Param("date"),
		ShiftTypeID: req.ShiftTypeID,
		VehicleID:   req.VehicleID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "assignment": a})
}

// ClearCell backs both the picker's clear action and the right-click
// shortcut. Clearing an empty cell succeeds without writing.
func (h *Handler) ClearCell(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}

	if _, err := h.plans.Clear(c.Request.Context(), editor(c), year, month, c.Param("uid"), c.Param("date")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamMonth pushes the month view over Server-Sent Events: the current
// view first, then a rebuilt view after every change to the month, the
// catalog or the personnel list.
func (h *Handler) StreamMonth(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := logging.FromContext(ctx).WithField("month", planning.MonthKey(year, month))
	editable := auth.RoleFrom(c).CanWrite()

	// Subscribe before loading so a write between the two is not lost.
	events, cancel, err := h.events.Subscribe(ctx, planning.MonthKey(year, month))
	if err != nil {
		log.WithError(err).Error("plan subscription failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live updates unavailable"})
		return
	}
	defer cancel()

	v, err := h.plans.Month(ctx, year, month)
	if err != nil {
		writeError(c, err)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	v.Editable = editable
	writeEvent(c, "initial", v)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case _, open := <-events:
			if !open {
				return
			}
			drain(events)

			updated, err := h.plans.Month(ctx, year, month)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("rebuilding plan view failed")
				continue
			}
			updated.Editable = editable
			writeEvent(c, "update", updated)
			flusher.Flush()
		}
	}
}

func (h *Handler) ExportMonth(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}
	renderer, err := h.renderers.Get(c.DefaultQuery("format", "pdf"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error(), "formats": h.renderers.Formats()})
		return
	}

	ctx := c.Request.Context()
	v, err := h.plans.Month(ctx, year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	art, err := renderer.Render(ctx, v)
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("format", renderer.Format()).Error("export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Export fehlgeschlagen"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.FileName))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

func (h *Handler) ListAudit(c *gin.Context) {
	year, month, ok := monthParams(c)
	if !ok {
		return
	}
	if h.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "audit trail not configured"})
		return
	}

	from, to := planning.MonthRange(year, month)
	entries, err := h.audit.ListRange(c.Request.Context(), from, to, queryInt(c, "limit"))
	if err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Error("audit query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load audit trail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

func editor(c *gin.Context) planning.Editor {
	s, _ := auth.SessionFrom(c)
	return planning.Editor{UID: s.UID, Role: s.Role}
}

func monthParams(c *gin.Context) (int, int, bool) {
	year, month, err := planning.ParseMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return 0, 0, false
	}
	return year, month, true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// writeError maps planning errors to statuses. Store failures surface as a
// message for the editor; the next live update corrects the grid.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, planning.ErrReadOnly):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Keine Schreibrechte für den Dienstplan"})
	case errors.Is(err, planning.ErrInvalidMonth),
		errors.Is(err, planning.ErrInvalidDate),
		errors.Is(err, planning.ErrUnknownShiftType),
		errors.Is(err, planning.ErrUnknownVehicle),
		errors.Is(err, planning.ErrUnknownEmployee):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, export.ErrUnknownFormat):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("plan request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Speichern fehlgeschlagen, bitte erneut versuchen"})
	}
}

func writeEvent(c *gin.Context, name string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, data)
}

// drain discards queued events; one rebuild covers all of them.
func drain(events <-chan realtime.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
