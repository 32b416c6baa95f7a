package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

// RecordVisit writes the visit and set-union appends its key to the family
// in a single write transaction, then signals subscribers.
func (s *Store) RecordVisit(_ context.Context, key models.FamilyKey, visit models.Visit) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(membersTable, "id", key.PhoneNumber, key.MemberID)
	if err != nil {
		return fmt.Errorf("find family: %w", err)
	}
	if raw == nil {
		return storage.ErrNotFound
	}

	record := &models.Visit{
		ID:          visit.ID,
		PhoneNumber: visit.PhoneNumber,
		FirstName:   visit.FirstName,
		LastName:    visit.LastName,
		Metadata:    maps.Clone(visit.Metadata),
		CreatedAt:   time.Now().UTC(),
	}
	prev, err := txn.First(visitsTable, "id", visit.ID)
	if err != nil {
		return fmt.Errorf("write visit: %w", err)
	}
	if existing, ok := prev.(*models.Visit); ok {
		record.CreatedAt = existing.CreatedAt
	}
	if err := txn.Insert(visitsTable, record); err != nil {
		return fmt.Errorf("write visit: %w", err)
	}

	family := copyFamily(raw.(*models.Family))
	if !slices.Contains(family.Visits, visit.Key()) {
		family.Visits = append(family.Visits, visit.Key())
		family.UpdatedAt = time.Now().UTC()
		if err := txn.Insert(membersTable, &family); err != nil {
			return fmt.Errorf("append visit to family: %w", err)
		}
	}

	txn.Commit()
	s.notifier.Publish()
	return nil
}

// GetVisit fetches a visit by ID.
func (s *Store) GetVisit(_ context.Context, id int64) (models.Visit, error) {
	txn := s.db.Txn(false)
	raw, err := txn.First(visitsTable, "id", id)
	if err != nil {
		return models.Visit{}, fmt.Errorf("get visit: %w", err)
	}
	if raw == nil {
		return models.Visit{}, storage.ErrNotFound
	}
	return copyVisit(raw.(*models.Visit)), nil
}

// ListVisits returns visits with from <= id < to, or id >= from when to is zero.
func (s *Store) ListVisits(_ context.Context, from, to int64) ([]models.Visit, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(visitsTable, "id")
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}

	visits := []models.Visit{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		visit := raw.(*models.Visit)
		if visit.ID < from || (to != 0 && visit.ID >= to) {
			continue
		}
		visits = append(visits, copyVisit(visit))
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].ID < visits[j].ID })
	return visits, nil
}

func copyVisit(v *models.Visit) models.Visit {
	out := *v
	out.Metadata = maps.Clone(v.Metadata)
	return out
}
