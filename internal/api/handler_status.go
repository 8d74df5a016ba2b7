package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// latestStatusResponse is one row of the GET /status payload. Device
// identifiers are masked for public exposure; that is a presentation policy,
// the store keeps the full EUI.
type latestStatusResponse struct {
	DevEUI      string    `json:"devEui"`
	DeviceLabel string    `json:"deviceLabel"`
	Status      string    `json:"status"`
	ObservedAt  time.Time `json:"observedAt"`
}

// GetStatus handles the GET /status request.
func (h *Handler) GetStatus(c *gin.Context) {
	rows, err := h.store.LatestEvents(c.Request.Context(), "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve latest status"})
		return
	}

	response := make([]latestStatusResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, latestStatusResponse{
			DevEUI:      maskDeviceID(row.DevEUI),
			DeviceLabel: row.DeviceLabel,
			Status:      row.Status,
			ObservedAt:  row.ObservedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}

// maskDeviceID keeps the first four and last two characters of an EUI.
func maskDeviceID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:4] + strings.Repeat("*", len(id)-6) + id[len(id)-2:]
}
