package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PutLegacyFamily overwrites the root record for the family's phone number.
func (s *Store) PutLegacyFamily(ctx context.Context, family models.Family) error {
	const query = `
	INSERT INTO family_accounts (phone_number, first_name, last_name, household)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (phone_number) DO UPDATE SET
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		household = EXCLUDED.household,
		updated_at = NOW();
	`
	if _, err := s.pool.Exec(ctx, query, family.PhoneNumber, family.FirstName, family.LastName, family.Household); err != nil {
		return fmt.Errorf("put legacy family: %w", err)
	}
	return nil
}

// GetLegacyFamily fetches the root record for a phone number.
func (s *Store) GetLegacyFamily(ctx context.Context, phone string) (models.Family, error) {
	const query = `
	SELECT phone_number, first_name, last_name, household, created_at, updated_at
	FROM family_accounts
	WHERE phone_number = $1;
	`
	var family models.Family
	err := s.pool.QueryRow(ctx, query, phone).Scan(
		&family.PhoneNumber, &family.FirstName, &family.LastName, &family.Household, &family.CreatedAt, &family.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Family{}, storage.ErrNotFound
		}
		return models.Family{}, fmt.Errorf("get legacy family: %w", err)
	}
	family.Visits = []string{}
	return family, nil
}

// PutFamily upserts the profile of a nested record; its visit list is untouched.
func (s *Store) PutFamily(ctx context.Context, family models.Family) error {
	const query = `
	INSERT INTO family_members (phone_number, member_id, first_name, last_name, household)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (phone_number, member_id) DO UPDATE SET
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		household = EXCLUDED.household,
		updated_at = NOW();
	`
	if _, err := s.pool.Exec(ctx, query, family.PhoneNumber, family.MemberID, family.FirstName, family.LastName, family.Household); err != nil {
		return fmt.Errorf("put family: %w", err)
	}
	return nil
}

// InsertFamily adds a nested record and fails if the key is taken.
func (s *Store) InsertFamily(ctx context.Context, family models.Family) error {
	const query = `
	INSERT INTO family_members (phone_number, member_id, first_name, last_name, household)
	VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := s.pool.Exec(ctx, query, family.PhoneNumber, family.MemberID, family.FirstName, family.LastName, family.Household); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert family: %w", err)
	}
	return nil
}

// ListFamilies returns every nested record under a phone number with its visit list.
func (s *Store) ListFamilies(ctx context.Context, phone string) ([]models.Family, error) {
	const query = `
	SELECT m.phone_number, m.member_id, m.first_name, m.last_name, m.household, m.created_at, m.updated_at,
	(
		SELECT COALESCE(array_agg(fv.visit_id ORDER BY fv.seq), '{}')
		FROM family_visits fv
		WHERE fv.phone_number = m.phone_number AND fv.member_id = m.member_id
	)
	FROM family_members m
	WHERE m.phone_number = $1
	ORDER BY m.member_id;
	`
	rows, err := s.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		var family models.Family
		if err := rows.Scan(
			&family.PhoneNumber, &family.MemberID, &family.FirstName, &family.LastName,
			&family.Household, &family.CreatedAt, &family.UpdatedAt, &family.Visits,
		); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	return families, nil
}
