package core

import (
	"context"
	"time"
)

// Roles a user can hold. Only admins may change master data.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is a login scoped to one company. Bookings record the user who made them.
type User struct {
	ID           int       `json:"id"`
	CompanyID    int       `json:"company_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserService interface {
	// GetByUsername finds an active user. Usernames are globally unique and
	// compared in lower case.
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	// CreateUser stores an already hashed password. An existing username is
	// left untouched and returned.
	CreateUser(ctx context.Context, companyID int, username, email, passwordHash, role string) (*User, error)
}
