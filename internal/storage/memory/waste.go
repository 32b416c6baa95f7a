package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/hongminglow/carecrate/internal/models"
)

// PutWaste writes a waste record keyed by its timestamp, overwriting on collision.
func (s *Store) PutWaste(_ context.Context, waste models.Waste) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	record := &models.Waste{
		TimeOfWaste: waste.TimeOfWaste,
		Metadata:    maps.Clone(waste.Metadata),
		CreatedAt:   time.Now().UTC(),
	}
	if err := txn.Insert(wasteTable, record); err != nil {
		return fmt.Errorf("put waste: %w", err)
	}
	txn.Commit()
	return nil
}

// ListWaste returns waste at or after query.Since in the requested order.
func (s *Store) ListWaste(_ context.Context, query models.WasteQuery) ([]models.Waste, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(wasteTable, "id")
	if err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}

	records := []models.Waste{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		waste := raw.(*models.Waste)
		if waste.TimeOfWaste < query.Since {
			continue
		}
		out := *waste
		out.Metadata = maps.Clone(waste.Metadata)
		records = append(records, out)
	}

	switch query.Order {
	case models.Ascending:
		sort.Slice(records, func(i, j int) bool { return records[i].TimeOfWaste < records[j].TimeOfWaste })
	case models.Descending:
		sort.Slice(records, func(i, j int) bool { return records[i].TimeOfWaste > records[j].TimeOfWaste })
	}
	return records, nil
}
