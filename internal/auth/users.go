package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// User is a staff account. Each user owns one order collection.
type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	IsAdmin        bool
}

// PGUsers is the Postgres-backed user store.
type PGUsers struct {
	pool *pgxpool.Pool
}

func NewPGUsers(pool *pgxpool.Pool) *PGUsers {
	return &PGUsers{pool: pool}
}

func (s *PGUsers) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, hashed_password, is_admin FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PGUsers) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, hashed_password, is_admin FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new account, or returns the existing one when
// the email is already taken. Used by the seeder.
func (s *PGUsers) CreateUser(ctx context.Context, u User) (User, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, hashed_password, is_admin)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		u.Name, u.Email, u.HashedPassword, u.IsAdmin).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
