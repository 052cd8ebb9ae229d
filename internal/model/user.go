package model

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Provider     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
