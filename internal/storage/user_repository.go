package storage

import (
	"context"
	"time"

	"github.com/mrlongitqn/gobarber/internal/model"
	"github.com/mrlongitqn/gobarber/libs/db"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, provider)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Provider).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getWhere(ctx, "email = $1", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *UserRepository) getWhere(ctx context.Context, where string, arg any) (model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, provider, created_at, updated_at
		FROM users
		WHERE `+where,
		arg).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Provider, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user model.User) (model.User, error) {
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2,
			email = $3,
			password_hash = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, user.ID, user.Name, user.Email, user.PasswordHash).Scan(&updatedAt)
	if err != nil {
		return model.User{}, err
	}
	user.UpdatedAt = updatedAt
	return user, nil
}

// ListProviders returns every user offering appointments, ordered by name.
func (r *UserRepository) ListProviders(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, password_hash, provider, created_at, updated_at
		FROM users
		WHERE provider = true
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Provider, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}
