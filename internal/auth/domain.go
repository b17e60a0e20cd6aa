package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and inactive
	// accounts alike; callers never learn which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrSessionNotFound indicates an expired or revoked token.
	ErrSessionNotFound = errors.New("auth: session not found")
)

// User is an application account. Salespeople are users flagged as such so
// orders can reference them for commission accrual.
type User struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	IsSalesperson bool      `json:"is_salesperson" db:"is_salesperson"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token for subsequent requests.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
