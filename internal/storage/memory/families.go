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

// PutLegacyFamily overwrites the root record for the family's phone number.
func (s *Store) PutLegacyFamily(_ context.Context, family models.Family) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	now := time.Now().UTC()
	record := &models.Family{
		PhoneNumber: family.PhoneNumber,
		FirstName:   family.FirstName,
		LastName:    family.LastName,
		Household:   maps.Clone(family.Household),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	raw, err := txn.First(accountsTable, "id", family.PhoneNumber)
	if err != nil {
		return fmt.Errorf("put legacy family: %w", err)
	}
	if existing, ok := raw.(*models.Family); ok {
		record.CreatedAt = existing.CreatedAt
	}
	if err := txn.Insert(accountsTable, record); err != nil {
		return fmt.Errorf("put legacy family: %w", err)
	}
	txn.Commit()
	return nil
}

// GetLegacyFamily fetches the root record for a phone number.
func (s *Store) GetLegacyFamily(_ context.Context, phone string) (models.Family, error) {
	txn := s.db.Txn(false)
	raw, err := txn.First(accountsTable, "id", phone)
	if err != nil {
		return models.Family{}, fmt.Errorf("get legacy family: %w", err)
	}
	if raw == nil {
		return models.Family{}, storage.ErrNotFound
	}
	family := copyFamily(raw.(*models.Family))
	family.Visits = []string{}
	return family, nil
}

// PutFamily upserts the profile of a nested record; its visit list is untouched.
func (s *Store) PutFamily(_ context.Context, family models.Family) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(membersTable, "id", family.PhoneNumber, family.MemberID)
	if err != nil {
		return fmt.Errorf("put family: %w", err)
	}
	now := time.Now().UTC()
	record := &models.Family{
		PhoneNumber: family.PhoneNumber,
		MemberID:    family.MemberID,
		FirstName:   family.FirstName,
		LastName:    family.LastName,
		Household:   maps.Clone(family.Household),
		Visits:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, ok := raw.(*models.Family); ok {
		record.Visits = slices.Clone(existing.Visits)
		record.CreatedAt = existing.CreatedAt
	}
	if err := txn.Insert(membersTable, record); err != nil {
		return fmt.Errorf("put family: %w", err)
	}
	txn.Commit()
	return nil
}

// InsertFamily adds a nested record and fails if the key is taken.
func (s *Store) InsertFamily(_ context.Context, family models.Family) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(membersTable, "id", family.PhoneNumber, family.MemberID)
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	if raw != nil {
		return storage.ErrAlreadyExists
	}
	now := time.Now().UTC()
	record := &models.Family{
		PhoneNumber: family.PhoneNumber,
		MemberID:    family.MemberID,
		FirstName:   family.FirstName,
		LastName:    family.LastName,
		Household:   maps.Clone(family.Household),
		Visits:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := txn.Insert(membersTable, record); err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	txn.Commit()
	return nil
}

// ListFamilies returns every nested record under a phone number ordered by member ID.
func (s *Store) ListFamilies(_ context.Context, phone string) ([]models.Family, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(membersTable, "phone", phone)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}

	families := []models.Family{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		families = append(families, copyFamily(raw.(*models.Family)))
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].MemberID < families[j].MemberID
	})
	return families, nil
}

func copyFamily(f *models.Family) models.Family {
	out := *f
	out.Household = maps.Clone(f.Household)
	out.Visits = slices.Clone(f.Visits)
	if out.Visits == nil {
		out.Visits = []string{}
	}
	return out
}
