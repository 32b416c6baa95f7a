package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

// CreateStaff inserts a staff user, assigning the next ID.
func (s *Store) CreateStaff(_ context.Context, user models.StaffUser) (models.StaffUser, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	// memdb does not enforce uniqueness on secondary indexes.
	for _, lookup := range []struct{ index, value string }{
		{"username", user.Username},
		{"email", user.Email},
	} {
		raw, err := txn.First(staffTable, lookup.index, lookup.value)
		if err != nil {
			return models.StaffUser{}, fmt.Errorf("create staff: %w", err)
		}
		if raw != nil {
			return models.StaffUser{}, storage.ErrAlreadyExists
		}
	}

	s.mu.Lock()
	s.nextID++
	user.ID = s.nextID
	s.mu.Unlock()
	user.CreatedAt = time.Now().UTC()

	record := user
	if err := txn.Insert(staffTable, &record); err != nil {
		return models.StaffUser{}, fmt.Errorf("create staff: %w", err)
	}
	txn.Commit()
	return user, nil
}

// FindStaffByUsernameOrEmail fetches the staff user matching the identifier as username or email.
func (s *Store) FindStaffByUsernameOrEmail(_ context.Context, identifier string) (models.StaffUser, error) {
	txn := s.db.Txn(false)
	for _, index := range []string{"username", "email"} {
		raw, err := txn.First(staffTable, index, identifier)
		if err != nil {
			return models.StaffUser{}, fmt.Errorf("find staff: %w", err)
		}
		if raw != nil {
			return *raw.(*models.StaffUser), nil
		}
	}
	return models.StaffUser{}, storage.ErrNotFound
}
