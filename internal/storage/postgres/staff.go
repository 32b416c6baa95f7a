package postgres

import (
	"context"
	"errors"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CreateStaff inserts a new staff row.
func (s *Store) CreateStaff(ctx context.Context, user models.StaffUser) (models.StaffUser, error) {
	const query = `
	INSERT INTO staff_users (username, email, display_name, role, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, username, email, display_name, role, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.Email, user.DisplayName, user.Role, user.PasswordHash)
	created, err := scanStaff(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.StaffUser{}, storage.ErrAlreadyExists
		}
		return models.StaffUser{}, err
	}
	return created, nil
}

// FindStaffByUsernameOrEmail fetches the first staff user matching the identifier as username or email.
func (s *Store) FindStaffByUsernameOrEmail(ctx context.Context, identifier string) (models.StaffUser, error) {
	const query = `
	SELECT id, username, email, display_name, role, password_hash, created_at
	FROM staff_users
	WHERE username = $1 OR email = $1
	LIMIT 1;
	`
	return scanStaff(s.pool.QueryRow(ctx, query, identifier))
}

func scanStaff(row pgx.Row) (models.StaffUser, error) {
	var user models.StaffUser
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.DisplayName, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StaffUser{}, storage.ErrNotFound
		}
		return models.StaffUser{}, err
	}
	return user, nil
}
