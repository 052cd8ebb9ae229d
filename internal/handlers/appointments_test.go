package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mrlongitqn/gobarber/internal/availability"
	"github.com/mrlongitqn/gobarber/internal/cache"
	"github.com/mrlongitqn/gobarber/internal/model"
	"github.com/mrlongitqn/gobarber/internal/scheduling"
	"github.com/mrlongitqn/gobarber/internal/storage"
	"github.com/mrlongitqn/gobarber/libs/auth"
)

type stubStore struct {
	appts map[string]model.Appointment
}

func newStubStore() *stubStore {
	return &stubStore{appts: map[string]model.Appointment{}}
}

func (s *stubStore) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	for _, existing := range s.appts {
		if existing.ProviderID == appt.ProviderID && existing.Date.Equal(appt.Date) && existing.Active() {
			return model.Appointment{}, &pgconn.PgError{Code: "23505"}
		}
	}
	appt.ID = uuid.NewString()
	appt.CreatedAt = time.Now().UTC()
	appt.UpdatedAt = appt.CreatedAt
	s.appts[appt.ID] = appt
	return appt, nil
}

func (s *stubStore) FindByProviderAndDate(ctx context.Context, providerID string, date time.Time) (model.Appointment, bool, error) {
	for _, appt := range s.appts {
		if appt.ProviderID == providerID && appt.Date.Equal(date) && appt.Active() {
			return appt, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func (s *stubStore) ListByProviderAndDay(ctx context.Context, providerID string, year int, month time.Month, day int) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, appt := range s.appts {
		d := appt.Date
		if appt.ProviderID == providerID && appt.Active() &&
			d.Year() == year && d.Month() == month && d.Day() == day {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (s *stubStore) Cancel(ctx context.Context, appointmentID, clientID string) (model.Appointment, error) {
	appt, ok := s.appts[appointmentID]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	if appt.ClientID != clientID {
		return model.Appointment{}, storage.ErrNotOwner
	}
	now := time.Now().UTC()
	appt.CanceledAt = &now
	s.appts[appointmentID] = appt
	return appt, nil
}

func newTestHandler(now time.Time) *AppointmentHandler {
	logger := slog.New(slog.DiscardHandler)
	svc := scheduling.New(newStubStore(), cache.NewMemory(), logger, scheduling.Config{
		Now: func() time.Time { return now },
	})
	return NewAppointmentHandler(svc, logger)
}

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	claims := &auth.Claims{Sub: userID}
	return req.WithContext(context.WithValue(req.Context(), claimsKey, claims))
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(now)

	body := `{"provider_id":"prov-1","date":"2026-03-10T09:30:00Z"}`
	rw := httptest.NewRecorder()
	h.Create(rw, authedRequest(http.MethodPost, "/api/v1/appointments", body, "client-1"))
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}

	var resp appointmentItem
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Date != "2026-03-10T09:00:00Z" {
		t.Fatalf("date = %q, want hour-normalized 2026-03-10T09:00:00Z", resp.Date)
	}

	// Same hour, different minute: the slot is taken.
	rw2 := httptest.NewRecorder()
	body2 := `{"provider_id":"prov-1","date":"2026-03-10T09:45:00Z"}`
	h.Create(rw2, authedRequest(http.MethodPost, "/api/v1/appointments", body2, "client-2"))
	if rw2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rw2.Code, rw2.Body.String())
	}
}

func TestCreateAppointmentEndpointValidation(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(now)

	rw := httptest.NewRecorder()
	h.Create(rw, authedRequest(http.MethodPost, "/api/v1/appointments", `{"provider_id":"prov-1","date":"not-a-date"}`, "client-1"))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rw.Code)
	}

	// Booking yourself is rejected by the scheduling service.
	rw2 := httptest.NewRecorder()
	h.Create(rw2, authedRequest(http.MethodPost, "/api/v1/appointments", `{"provider_id":"prov-1","date":"2026-03-10T10:00:00Z"}`, "prov-1"))
	if rw2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self booking, got %d", rw2.Code)
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(now)

	body := `{"provider_id":"prov-1","date":"2026-03-10T14:00:00Z"}`
	rw := httptest.NewRecorder()
	h.Create(rw, authedRequest(http.MethodPost, "/api/v1/appointments", body, "client-1"))
	if rw.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rw.Code, rw.Body.String())
	}

	rwA := httptest.NewRecorder()
	h.Availability(rwA, httptest.NewRequest(http.MethodGet, "/api/v1/providers/prov-1/availability?date=2026-03-10", nil))
	if rwA.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rwA.Code, rwA.Body.String())
	}

	var slots []availability.Slot
	if err := json.Unmarshal(rwA.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	for _, slot := range slots {
		if slot.Hour == 14 && slot.Available {
			t.Fatal("hour 14 should be booked")
		}
	}
}

func TestAvailabilityEndpointRequiresDate(t *testing.T) {
	h := newTestHandler(time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC))

	rw := httptest.NewRecorder()
	h.Availability(rw, httptest.NewRequest(http.MethodGet, "/api/v1/providers/prov-1/availability", nil))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}

	rwBad := httptest.NewRecorder()
	h.Availability(rwBad, httptest.NewRequest(http.MethodGet, "/api/v1/providers/prov-1/availability?date=10-03-2026", nil))
	if rwBad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rwBad.Code)
	}
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(now)

	body := `{"provider_id":"prov-1","date":"2026-03-10T10:00:00Z"}`
	rw := httptest.NewRecorder()
	h.Create(rw, authedRequest(http.MethodPost, "/api/v1/appointments", body, "client-1"))
	if rw.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rw.Code)
	}
	var created appointmentItem
	if err := json.Unmarshal(rw.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Someone else's token cannot cancel the booking.
	rwOther := httptest.NewRecorder()
	h.Cancel(rwOther, authedRequest(http.MethodDelete, "/api/v1/appointments/"+created.ID, "", "client-2"))
	if rwOther.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-owner, got %d", rwOther.Code)
	}

	// Unknown appointment ids map to validation, not a 500.
	rwMissing := httptest.NewRecorder()
	h.Cancel(rwMissing, authedRequest(http.MethodDelete, "/api/v1/appointments/"+uuid.NewString(), "", "client-1"))
	if rwMissing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown id, got %d", rwMissing.Code)
	}

	rwC := httptest.NewRecorder()
	h.Cancel(rwC, authedRequest(http.MethodDelete, "/api/v1/appointments/"+created.ID, "", "client-1"))
	if rwC.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rwC.Code, rwC.Body.String())
	}
	var canceled appointmentItem
	if err := json.Unmarshal(rwC.Body.Bytes(), &canceled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if canceled.CanceledAt == "" {
		t.Fatal("expected canceled_at to be set")
	}
}
