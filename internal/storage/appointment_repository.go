package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mrlongitqn/gobarber/internal/model"
	"github.com/mrlongitqn/gobarber/internal/outbox"
	"github.com/mrlongitqn/gobarber/libs/db"
)

var ErrNotOwner = errors.New("appointment belongs to another client")

type AppointmentRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

// NewAppointmentRepository wires the repository. outboxRepo may be nil, in
// which case no domain events are recorded.
func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outboxRepo: outboxRepo}
}

// Create inserts the appointment and its booked event in one transaction.
// The partial unique index on (provider_id, date) for active rows rejects
// concurrent duplicates; callers detect that with IsConflict.
func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, provider_id, client_id, date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, appt.ID, appt.ProviderID, appt.ClientID, appt.Date).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentBooked, appt); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// FindByProviderAndDate looks up the active appointment occupying the exact
// hour slot, if any.
func (r *AppointmentRepository) FindByProviderAndDate(ctx context.Context, providerID string, date time.Time) (model.Appointment, bool, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT id, provider_id, client_id, date, canceled_at, created_at, updated_at
		FROM appointments
		WHERE provider_id = $1 AND date = $2 AND canceled_at IS NULL
	`, providerID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, false, nil
		}
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}

// ListByProviderAndDay returns the provider's active appointments for one
// calendar day in ascending slot order.
func (r *AppointmentRepository) ListByProviderAndDay(ctx context.Context, providerID string, year int, month time.Month, day int) ([]model.Appointment, error) {
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, client_id, date, canceled_at, created_at, updated_at
		FROM appointments
		WHERE provider_id = $1
			AND date >= $2
			AND date < $3
			AND canceled_at IS NULL
		ORDER BY date ASC
	`, providerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// Cancel soft-cancels the appointment on behalf of the booking client and
// records the canceled event in the same transaction. Canceling an already
// canceled appointment is a no-op returning the stored row.
func (r *AppointmentRepository) Cancel(ctx context.Context, appointmentID, clientID string) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT id, provider_id, client_id, date, canceled_at, created_at, updated_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentID))
	if err != nil {
		return model.Appointment{}, err
	}
	if appt.ClientID != clientID {
		return model.Appointment{}, ErrNotOwner
	}
	if appt.CanceledAt != nil {
		return appt, tx.Commit(ctx)
	}

	var canceledAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE appointments
		SET canceled_at = now(),
			updated_at = now()
		WHERE id = $1
		RETURNING canceled_at
	`, appointmentID).Scan(&canceledAt)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CanceledAt = &canceledAt

	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentCanceled, appt); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	if r.outboxRepo == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"provider_id":    appt.ProviderID,
		"client_id":      appt.ClientID,
		"date":           appt.Date.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var canceledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.ProviderID,
		&appt.ClientID,
		&appt.Date,
		&canceledAt,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CanceledAt = canceledAt
	return appt, nil
}

// IsConflict reports whether err is the unique-slot violation raised when two
// bookings race for the same (provider, hour) pair.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
