package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/docvault/docvault/internal/services/vault/identity"
)

func (h *Handler) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.EnsureUser(r.Context(), claimFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.CurrentUser(r.Context(), claimFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*userResponse{"user": toUserResponsePtr(u)})
}

// handleIdentityWebhook applies identity provider events. When a shared token
// is configured, deliveries must present it; otherwise the endpoint trusts an
// upstream verifier.
func (h *Handler) handleIdentityWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookToken != "" && r.Header.Get("X-Webhook-Token") != h.webhookToken {
		h.writeError(w, unauthenticatedError("invalid webhook token"))
		return
	}

	var event identity.Event
	if err := decodeJSON(r, &event); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.svc.HandleIdentityEvent(r.Context(), event); err != nil {
		h.logger.Error("identity webhook failed",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
