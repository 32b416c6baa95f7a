package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/carecrate/internal/models"
)

// PutWaste writes a waste record keyed by its timestamp, overwriting on collision.
func (s *Store) PutWaste(ctx context.Context, waste models.Waste) error {
	const query = `
	INSERT INTO waste (time_of_waste, metadata)
	VALUES ($1, $2)
	ON CONFLICT (time_of_waste) DO UPDATE SET metadata = EXCLUDED.metadata;
	`
	if _, err := s.pool.Exec(ctx, query, waste.TimeOfWaste, waste.Metadata); err != nil {
		return fmt.Errorf("put waste: %w", err)
	}
	return nil
}

// ListWaste returns waste at or after query.Since in the requested order.
func (s *Store) ListWaste(ctx context.Context, query models.WasteQuery) ([]models.Waste, error) {
	stmt := `
	SELECT time_of_waste, metadata, created_at
	FROM waste
	WHERE time_of_waste >= $1`
	switch query.Order {
	case models.Ascending:
		stmt += ` ORDER BY time_of_waste ASC`
	case models.Descending:
		stmt += ` ORDER BY time_of_waste DESC`
	}

	rows, err := s.pool.Query(ctx, stmt, query.Since)
	if err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}
	defer rows.Close()

	records := []models.Waste{}
	for rows.Next() {
		var waste models.Waste
		if err := rows.Scan(&waste.TimeOfWaste, &waste.Metadata, &waste.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan waste: %w", err)
		}
		records = append(records, waste)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}
	return records, nil
}
