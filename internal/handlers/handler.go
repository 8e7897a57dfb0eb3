package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/chat"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db       store.DataStore
	redis    *store.RedisStore
	history  *chat.HistoryLoader
	registry *chat.Registry
}

// NewHandler creates a new Handler with the given stores. redis may be nil in
// development when sessions live in memory.
func NewHandler(db store.DataStore, redis *store.RedisStore, history *chat.HistoryLoader, registry *chat.Registry) *Handler {
	return &Handler{db: db, redis: redis, history: history, registry: registry}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
