package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type deleteEventsRequest struct {
	DevEUI string    `json:"devEui" binding:"required"`
	From   time.Time `json:"from" binding:"required"`
	To     time.Time `json:"to" binding:"required"`
}

// DeleteEvents handles DELETE /admin/events, the administrative cleanup of
// mis-ingested history. It reuses the webhook bearer secret and exists
// outside the steady-state lifecycle: log rows are otherwise never deleted.
func (h *Handler) DeleteEvents(c *gin.Context) {
	if err := h.guard.Authenticate(c.GetHeader("Authorization")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req deleteEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.From.Before(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	deleted, err := h.store.DeleteEvents(c.Request.Context(), req.DevEUI, req.From, req.To)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
