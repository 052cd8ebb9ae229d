package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrlongitqn/gobarber/internal/cache"
	"github.com/mrlongitqn/gobarber/internal/storage"
)

type ProviderHandler struct {
	users    *storage.UserRepository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewProviderHandler(users *storage.UserRepository, cacheStore cache.Store, cacheTTL time.Duration, logger *slog.Logger) *ProviderHandler {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ProviderHandler{users: users, cache: cacheStore, cacheTTL: cacheTTL, logger: logger}
}

type providerItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List returns every provider, excluding the authenticated user so clients do
// not see themselves in the booking picker.
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var items []providerItem
	hit, err := h.cache.Get(r.Context(), cache.ProvidersKey, &items)
	if err != nil {
		h.logger.Warn("providers cache read failed", "err", err)
	}
	if !hit {
		providers, err := h.users.ListProviders(r.Context())
		if err != nil {
			http.Error(w, "failed to list providers", http.StatusInternalServerError)
			return
		}
		items = make([]providerItem, 0, len(providers))
		for _, p := range providers {
			items = append(items, providerItem{ID: p.ID, Name: p.Name})
		}
		if err := h.cache.Set(r.Context(), cache.ProvidersKey, items, h.cacheTTL); err != nil {
			h.logger.Warn("providers cache write failed", "err", err)
		}
	}

	out := items
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		out = make([]providerItem, 0, len(items))
		for _, item := range items {
			if item.ID == claims.Sub {
				continue
			}
			out = append(out, item)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}
