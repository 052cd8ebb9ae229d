package scheduling

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrlongitqn/gobarber/internal/availability"
	"github.com/mrlongitqn/gobarber/internal/cache"
	"github.com/mrlongitqn/gobarber/internal/model"
	"github.com/mrlongitqn/gobarber/internal/schedule"
	"github.com/mrlongitqn/gobarber/internal/storage"
)

// AppointmentStore is the persistence capability the service orchestrates.
// The production implementation is storage.AppointmentRepository.
type AppointmentStore interface {
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	FindByProviderAndDate(ctx context.Context, providerID string, date time.Time) (model.Appointment, bool, error)
	ListByProviderAndDay(ctx context.Context, providerID string, year int, month time.Month, day int) ([]model.Appointment, error)
	Cancel(ctx context.Context, appointmentID, clientID string) (model.Appointment, error)
}

type Config struct {
	Hours            availability.BusinessHours
	AllowPastBooking bool
	AllowSelfBooking bool
	CacheTTL         time.Duration

	// Now supplies the clock; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// Service implements the appointment-slot scheduling use cases: create,
// cancel, day availability and the provider schedule view.
type Service struct {
	store  AppointmentStore
	cache  cache.Store
	logger *slog.Logger
	cfg    Config
}

func New(store AppointmentStore, cacheStore cache.Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Hours.Start == 0 && cfg.Hours.End == 0 {
		cfg.Hours = availability.BusinessHours{Start: 8, End: 17}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Service{store: store, cache: cacheStore, logger: logger, cfg: cfg}
}

// CreateAppointment books one hour slot. The requested time is normalized to
// its hour boundary before any check; the storage uniqueness constraint is the
// authoritative guard against concurrent double-booking, the pre-insert lookup
// only fails fast.
func (s *Service) CreateAppointment(ctx context.Context, providerID, clientID string, requestedAt time.Time) (model.Appointment, error) {
	if providerID == "" || clientID == "" {
		return model.Appointment{}, validationError("provider and client are required")
	}

	date := schedule.StartOfHour(requestedAt.UTC())

	if !s.cfg.AllowSelfBooking && providerID == clientID {
		return model.Appointment{}, validationError("cannot book an appointment with yourself")
	}
	if !s.cfg.AllowPastBooking && !date.After(s.cfg.Now().UTC()) {
		return model.Appointment{}, validationError("cannot book a past slot")
	}
	if h := date.Hour(); h < s.cfg.Hours.Start || h > s.cfg.Hours.End {
		return model.Appointment{}, validationError("slot is outside business hours")
	}

	if _, taken, err := s.store.FindByProviderAndDate(ctx, providerID, date); err != nil {
		return model.Appointment{}, storageError("conflict check failed", err)
	} else if taken {
		return model.Appointment{}, conflictError("slot already booked")
	}

	appt, err := s.store.Create(ctx, model.Appointment{
		ProviderID: providerID,
		ClientID:   clientID,
		Date:       date,
	})
	if err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, conflictError("slot already booked")
		}
		return model.Appointment{}, storageError("failed to create appointment", err)
	}

	if err := s.invalidateAfterWrite(ctx, providerID, date); err != nil {
		// The booking is committed but the caller must not see success while a
		// stale availability entry could still be served.
		return model.Appointment{}, storageError("cache invalidation failed", err)
	}
	return appt, nil
}

// CancelAppointment soft-cancels a booking on behalf of its client and frees
// the slot.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID, clientID string) (model.Appointment, error) {
	if appointmentID == "" || clientID == "" {
		return model.Appointment{}, validationError("appointment and client are required")
	}

	appt, err := s.store.Cancel(ctx, appointmentID, clientID)
	if err != nil {
		switch {
		case storage.IsNotFound(err):
			return model.Appointment{}, validationError("appointment not found")
		case err == storage.ErrNotOwner:
			return model.Appointment{}, validationError("only the booking client may cancel")
		default:
			return model.Appointment{}, storageError("failed to cancel appointment", err)
		}
	}

	// A freed slot must not be masked by any cached day of this provider.
	if err := s.cache.InvalidatePrefix(ctx, cache.ProviderPrefix(appt.ProviderID)); err != nil {
		return model.Appointment{}, storageError("cache invalidation failed", err)
	}
	if err := s.cache.Invalidate(ctx, cache.ProvidersKey); err != nil {
		return model.Appointment{}, storageError("cache invalidation failed", err)
	}
	return appt, nil
}

// DayAvailability returns the hour-slot vector for one provider day. Only the
// booked hours are cached; the current-hour cutoff for today is applied on
// every read so a cached entry never freezes the clock.
func (s *Service) DayAvailability(ctx context.Context, providerID string, year int, month time.Month, day int) ([]availability.Slot, error) {
	if providerID == "" {
		return nil, validationError("provider is required")
	}
	dayStart, _ := schedule.DayBounds(year, month, day, time.UTC)

	key := cache.DayKey(providerID, dayStart)
	var bookedHours []int
	hit, err := s.cache.Get(ctx, key, &bookedHours)
	if err != nil {
		s.logger.Warn("availability cache read failed", "err", err, "provider_id", providerID)
		hit = false
	}
	if !hit {
		appts, err := s.store.ListByProviderAndDay(ctx, providerID, year, month, day)
		if err != nil {
			return nil, storageError("failed to load booked slots", err)
		}
		bookedHours = make([]int, 0, len(appts))
		for _, appt := range appts {
			bookedHours = append(bookedHours, appt.Date.Hour())
		}
		if err := s.cache.Set(ctx, key, bookedHours, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", "err", err, "provider_id", providerID)
		}
	}

	booked := make(map[int]bool, len(bookedHours))
	for _, h := range bookedHours {
		booked[h] = true
	}

	now := s.cfg.Now().UTC()
	return availability.DaySlots(s.cfg.Hours, booked, schedule.SameDay(dayStart, now), now.Hour()), nil
}

// ProviderDay lists a provider's active appointments for one day in slot
// order (the provider's schedule view).
func (s *Service) ProviderDay(ctx context.Context, providerID string, year int, month time.Month, day int) ([]model.Appointment, error) {
	if providerID == "" {
		return nil, validationError("provider is required")
	}
	appts, err := s.store.ListByProviderAndDay(ctx, providerID, year, month, day)
	if err != nil {
		return nil, storageError("failed to load appointments", err)
	}
	return appts, nil
}

func (s *Service) invalidateAfterWrite(ctx context.Context, providerID string, date time.Time) error {
	return s.cache.Invalidate(ctx, cache.DayKey(providerID, date), cache.ProvidersKey)
}
