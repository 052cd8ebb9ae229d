package model

import "time"

// Appointment is one hour-wide booking of a provider by a client.
// Date is always aligned to the start of its hour.
type Appointment struct {
	ID         string
	ProviderID string
	ClientID   string
	Date       time.Time
	CanceledAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active reports whether the appointment still occupies its slot.
func (a Appointment) Active() bool {
	return a.CanceledAt == nil
}
