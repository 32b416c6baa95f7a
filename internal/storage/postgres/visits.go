package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/jackc/pgx/v5"
)

// RecordVisit upserts the visit, appends its key to the family's visit list
// and notifies listeners, all in one transaction.
func (s *Store) RecordVisit(ctx context.Context, key models.FamilyKey, visit models.Visit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin visit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM family_members WHERE phone_number = $1 AND member_id = $2 FOR UPDATE;`,
		key.PhoneNumber, key.MemberID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("lock family: %w", err)
	}

	const upsertVisit = `
	INSERT INTO visits (id, phone_number, first_name, last_name, metadata)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		phone_number = EXCLUDED.phone_number,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		metadata = EXCLUDED.metadata;
	`
	if _, err := tx.Exec(ctx, upsertVisit, visit.ID, visit.PhoneNumber, visit.FirstName, visit.LastName, visit.Metadata); err != nil {
		return fmt.Errorf("write visit: %w", err)
	}

	const appendVisit = `
	INSERT INTO family_visits (phone_number, member_id, visit_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (phone_number, member_id, visit_id) DO NOTHING;
	`
	if _, err := tx.Exec(ctx, appendVisit, key.PhoneNumber, key.MemberID, visit.Key()); err != nil {
		return fmt.Errorf("append visit to family: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2);`, visitsChannel, visit.Key()); err != nil {
		return fmt.Errorf("notify visit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit visit: %w", err)
	}
	return nil
}

// GetVisit fetches a visit by ID.
func (s *Store) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	const query = `
	SELECT id, phone_number, first_name, last_name, metadata, created_at
	FROM visits
	WHERE id = $1;
	`
	visit, err := scanVisit(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Visit{}, storage.ErrNotFound
		}
		return models.Visit{}, fmt.Errorf("get visit: %w", err)
	}
	return visit, nil
}

// ListVisits returns visits with from <= id < to, or id >= from when to is zero.
func (s *Store) ListVisits(ctx context.Context, from, to int64) ([]models.Visit, error) {
	const query = `
	SELECT id, phone_number, first_name, last_name, metadata, created_at
	FROM visits
	WHERE id >= $1 AND ($2::BIGINT = 0 OR id < $2::BIGINT)
	ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	visits := []models.Visit{}
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func scanVisit(row pgx.Row) (models.Visit, error) {
	var visit models.Visit
	err := row.Scan(&visit.ID, &visit.PhoneNumber, &visit.FirstName, &visit.LastName, &visit.Metadata, &visit.CreatedAt)
	return visit, err
}
