package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/session"
)

// SessionHandler serves session snapshots and the live watch stream.
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get returns the current snapshot.
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Watch streams snapshots over SSE. The subscription is latest-wins, so a
// slow client only ever misses intermediate states, never the current one.
func (h *SessionHandler) Watch(c *gin.Context) {
	ch, cancel := h.store.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case snap, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}
