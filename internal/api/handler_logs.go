package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parking-status-backend/internal/model"
)

type postLogRequest struct {
	Level   string `json:"level" binding:"required"`
	Message string `json:"message" binding:"required"`
	Origin  string `json:"origin"`
}

// PostLog handles POST /logs, the diagnostic sink for dashboard clients.
func (h *Handler) PostLog(c *gin.Context) {
	var req postLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = c.ClientIP()
	}

	entry := model.ClientLog{
		ID:        uuid.NewString(),
		Level:     req.Level,
		Message:   req.Message,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.AppendClientLog(c.Request.Context(), &entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store log entry"})
		return
	}
	c.Status(http.StatusCreated)
}
