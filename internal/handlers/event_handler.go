package handlers

import (
	"io"
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/gin-gonic/gin"
)

// EventSource is implemented by the store
type EventSource interface {
	Subscribe() (<-chan store.Event, func())
}

// EventHandler streams store change events as server-sent events
type EventHandler struct {
	events EventSource
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events EventSource) *EventHandler {
	return &EventHandler{events: events}
}

// Stream handles GET /events
func (h *EventHandler) Stream(c *gin.Context) {
	ch, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		}
	})
}
