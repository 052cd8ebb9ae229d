package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mrlongitqn/gobarber/libs/db"
)

type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient_id, kind, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, n.ID, n.RecipientID, n.Kind, n.Content).Scan(&n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (r *Repository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT id, recipient_id, kind, content, read, created_at
		FROM notifications
		WHERE recipient_id = $1
	`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification as read for its recipient. It reports
// whether a row was updated.
func (r *Repository) MarkRead(ctx context.Context, notificationID, recipientID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true
		WHERE id = $1 AND recipient_id = $2
	`, notificationID, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
