package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrlongitqn/gobarber/internal/model"
	"github.com/mrlongitqn/gobarber/internal/scheduling"
)

type AppointmentHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *scheduling.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type createAppointmentRequest struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
}

type appointmentItem struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	ClientID   string `json:"client_id"`
	Date       string `json:"date"`
	CanceledAt string `json:"canceled_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toAppointmentItem(appt model.Appointment) appointmentItem {
	item := appointmentItem{
		ID:         appt.ID,
		ProviderID: appt.ProviderID,
		ClientID:   appt.ClientID,
		Date:       appt.Date.UTC().Format(time.RFC3339),
		CreatedAt:  appt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if appt.CanceledAt != nil {
		item.CanceledAt = appt.CanceledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" {
		http.Error(w, "provider_id required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.CreateAppointment(r.Context(), req.ProviderID, claims.Sub, date)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toAppointmentItem(appt))
}

// Cancel handles DELETE /api/v1/appointments/{id}.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "appointment id required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.CancelAppointment(r.Context(), id, claims.Sub)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toAppointmentItem(appt))
}

// Schedule returns the authenticated provider's active appointments for one
// day, in slot order.
func (h *AppointmentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	day, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	appts, err := h.svc.ProviderDay(r.Context(), claims.Sub, day.Year(), day.Month(), day.Day())
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toAppointmentItem(appt))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

// Availability handles GET /api/v1/providers/{id}/availability?date=YYYY-MM-DD.
func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/providers/")
	providerID, suffix, found := strings.Cut(rest, "/")
	if !found || suffix != "availability" || providerID == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	day, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	slots, err := h.svc.DayAvailability(r.Context(), providerID, day.Year(), day.Month(), day.Day())
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(slots)
}

func parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		http.Error(w, "date required", http.StatusBadRequest)
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}

func (h *AppointmentHandler) writeSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case scheduling.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case scheduling.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("scheduling request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
