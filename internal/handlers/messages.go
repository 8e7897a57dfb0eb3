package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/api/middleware"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// ConversationResponse represents a loaded conversation slice.
type ConversationResponse struct {
	Messages []models.Message `json:"messages"`
	Count    int              `json:"count"`
}

// MarkReadResponse reports how many messages a read receipt covered.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// GetPrivateConversation returns the recent messages exchanged between the
// caller and the peer, oldest first.
func (h *Handler) GetPrivateConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	peer, ok := h.peerFromRequest(w, r)
	if !ok {
		return
	}

	msgs, err := h.history.Conversation(r.Context(), identity, peer, limitParam(r))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	h.JSON(w, http.StatusOK, ConversationResponse{Messages: msgs, Count: len(msgs)})
}

// GetGroupConversation returns the recent messages in an organization's group
// chat. Only current members may read it.
func (h *Handler) GetGroupConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	if identity.Type == models.EntityUser {
		member, err := h.db.IsMember(r.Context(), identity.ID, orgID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "membership lookup failed")
			return
		}
		if !member {
			h.Error(w, http.StatusForbidden, "not a member of the organization")
			return
		}
	} else if identity.ID != orgID {
		h.Error(w, http.StatusForbidden, "not a member of the organization")
		return
	}

	msgs, err := h.history.GroupConversation(r.Context(), orgID, limitParam(r))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	h.JSON(w, http.StatusOK, ConversationResponse{Messages: msgs, Count: len(msgs)})
}

// MarkConversationRead flags every unread message from the peer to the caller
// as read and reports the count.
func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	peer, ok := h.peerFromRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.db.MarkAsRead(r.Context(), identity, peer)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to mark messages as read")
		return
	}

	h.JSON(w, http.StatusOK, MarkReadResponse{Updated: updated})
}

// peerFromRequest parses the peer entity from the URL. The peer defaults to a
// user; peer_type=org selects an organization.
func (h *Handler) peerFromRequest(w http.ResponseWriter, r *http.Request) (models.Entity, bool) {
	peerID, err := strconv.ParseInt(chi.URLParam(r, "peerID"), 10, 64)
	if err != nil || peerID <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid peer id")
		return models.Entity{}, false
	}

	peerType := models.EntityUser
	if v := r.URL.Query().Get("peer_type"); v != "" {
		peerType = models.EntityType(v)
		if !peerType.Valid() {
			h.Error(w, http.StatusBadRequest, "invalid peer type")
			return models.Entity{}, false
		}
	}

	return models.Entity{ID: peerID, Type: peerType}, true
}

func limitParam(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
