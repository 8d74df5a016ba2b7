package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/ingest"
)

// PostUpdate handles the POST /update webhook from the sensor vendor.
func (h *Handler) PostUpdate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "could not read request body")
		return
	}

	_, err = h.ingest.Ingest(c.Request.Context(), c.GetHeader("Authorization"), body)
	if err == nil {
		c.String(http.StatusOK, "OK")
		return
	}

	var vErr *ingest.ValidationError
	switch {
	case errors.Is(err, ingest.ErrUnauthorized):
		c.String(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, ingest.ErrRateLimited):
		c.String(http.StatusTooManyRequests, "rate limit exceeded")
	case errors.As(err, &vErr):
		c.String(http.StatusBadRequest, vErr.Error())
	default:
		log.Printf("Ingest failed: %v", err)
		c.String(http.StatusInternalServerError, "failed to persist event")
	}
}
