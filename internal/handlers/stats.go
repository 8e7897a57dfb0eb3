package handlers

import (
	"net/http"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalMessages     int64 `json:"total_messages"`
	ActiveConnections int   `json:"active_connections"`
}

// Stats returns messaging statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	totalMessages, err := h.db.CountMessages(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count messages")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalMessages:     totalMessages,
		ActiveConnections: h.registry.Len(),
	})
}
