package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "id, company_id, username, email, password_hash, role, is_active, created_at"

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.CompanyID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 AND is_active",
		strings.ToLower(username)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("user %q not found", username)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("user %d not found", userID)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, companyID int, username, email, passwordHash, role string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	switch {
	case username == "" || passwordHash == "":
		return nil, invalidf("username and password are required")
	case role != RoleAdmin && role != RoleUser:
		return nil, invalidf("unknown role %q", role)
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (company_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING `+userColumns,
		companyID, username, strings.TrimSpace(email), passwordHash, role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if u.CompanyID != companyID {
		return nil, forbiddenf("username %q belongs to another company", username)
	}
	return u, nil
}
