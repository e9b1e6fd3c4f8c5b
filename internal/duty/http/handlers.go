package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/duty"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

func (h *Handler) List(c *gin.Context) {
	entries, err := h.duty.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries, "editable": auth.RoleFrom(c).CanWrite()})
}

func (h *Handler) Create(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Bitte Datum und Name ausfüllen."})
		return
	}
	e, err := h.duty.Create(c.Request.Context(), actor(c), req.toDomain(""))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "entry": e})
}

func (h *Handler) Update(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Bitte Datum und Name ausfüllen."})
		return
	}
	e, err := h.duty.Update(c.Request.Context(), actor(c), req.toDomain(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entry": e})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.duty.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream sends the full list once and again after every duty change until
// the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	events, cancel, err := h.events.Subscribe(ctx, realtime.DutyTopic)
	if err != nil {
		log.WithError(err).Error("duty subscription failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live updates unavailable"})
		return
	}
	defer cancel()

	entries, err := h.duty.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}
	writeEvent(c, "initial", entries)
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

		case ev, open := <-events:
			if !open {
				return
			}
			if ev.Kind != realtime.KindDuty {
				continue
			}

			entries, err := h.duty.List(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("reloading duty list failed")
				continue
			}
			writeEvent(c, "update", entries)
			flusher.Flush()
		}
	}
}

func actor(c *gin.Context) string {
	s, _ := auth.SessionFrom(c)
	return s.UID
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, duty.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Eintrag nicht gefunden"})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("duty request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Schreibfehler, bitte erneut versuchen"})
	}
}

func writeEvent(c *gin.Context, name string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, data)
}
