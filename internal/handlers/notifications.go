package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mrlongitqn/gobarber/internal/notifications"
)

type NotificationHandler struct {
	repo *notifications.Repository
}

func NewNotificationHandler(repo *notifications.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	items, err := h.repo.ListByRecipient(r.Context(), claims.Sub, unreadOnly)
	if err != nil {
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

// MarkRead handles PATCH /api/v1/notifications/{id}.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/notifications/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "notification id required", http.StatusBadRequest)
		return
	}

	updated, err := h.repo.MarkRead(r.Context(), id, claims.Sub)
	if err != nil {
		http.Error(w, "failed to mark notification read", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
