// Package pantry is the persistence facade the check-in and admin screens
// call: family registration and lookup, visit recording, waste logging.
package pantry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

var (
	ErrInvalidFamily = errors.New("phone number, first name and last name are required")
	ErrInvalidVisit  = errors.New("visit needs a phone number, first name and last name")
	ErrInvalidWaste  = errors.New("time of waste must not be negative")
	ErrInvalidOrder  = errors.New(`order must be "asc", "desc" or empty`)
)

// Store is the slice of storage.Store the facade needs.
type Store interface {
	storage.FamilyStore
	storage.VisitStore
	storage.WasteStore
}

// Service implements the pantry operations on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewService constructs the facade.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// SaveLegacyFamily overwrites the root record keyed by the family's phone number.
func (s *Service) SaveLegacyFamily(ctx context.Context, family models.Family) error {
	family, err := normalizeFamily(family)
	if err != nil {
		return err
	}
	if err := s.store.PutLegacyFamily(ctx, family); err != nil {
		return fmt.Errorf("save legacy family %s: %w", family.PhoneNumber, err)
	}
	return nil
}

// FetchLegacyFamily reads the root record written by SaveLegacyFamily.
// found is false, with a nil error, when no record exists.
func (s *Service) FetchLegacyFamily(ctx context.Context, phone string) (family models.Family, found bool, err error) {
	phone = storage.NormalizePhone(phone)
	if phone == "" {
		return models.Family{}, false, ErrInvalidFamily
	}
	family, err = s.store.GetLegacyFamily(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Family{}, false, nil
	}
	if err != nil {
		return models.Family{}, false, fmt.Errorf("fetch legacy family %s: %w", phone, err)
	}
	return family, true, nil
}

// RegisterFamily writes the family under its phone number keyed by full
// name, replacing the profile of an existing record with the same key.
func (s *Service) RegisterFamily(ctx context.Context, family models.Family) (models.FamilyKey, error) {
	family, err := normalizeFamily(family)
	if err != nil {
		return models.FamilyKey{}, err
	}
	family.MemberID = storage.MemberKey(family.FirstName, family.LastName)
	if err := s.store.PutFamily(ctx, family); err != nil {
		return models.FamilyKey{}, fmt.Errorf("register family: %w", err)
	}
	return models.FamilyKey{PhoneNumber: family.PhoneNumber, MemberID: family.MemberID}, nil
}

// AppendFamily adds the family under its phone number with a fresh member
// ID. Repeated calls never deduplicate.
func (s *Service) AppendFamily(ctx context.Context, family models.Family) (models.FamilyKey, error) {
	family, err := normalizeFamily(family)
	if err != nil {
		return models.FamilyKey{}, err
	}
	family.MemberID = s.newID()
	if err := s.store.InsertFamily(ctx, family); err != nil {
		return models.FamilyKey{}, fmt.Errorf("append family: %w", err)
	}
	return models.FamilyKey{PhoneNumber: family.PhoneNumber, MemberID: family.MemberID}, nil
}

// ListFamilies returns every family registered under a phone number.
func (s *Service) ListFamilies(ctx context.Context, phone string) ([]models.Family, error) {
	phone = storage.NormalizePhone(phone)
	if phone == "" {
		return nil, ErrInvalidFamily
	}
	families, err := s.store.ListFamilies(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("list families %s: %w", phone, err)
	}
	return families, nil
}

// RecordVisit stores the visit and adds it to the visiting family's list in
// one commit. A zero ID is replaced with the current time in milliseconds.
// storage.ErrNotFound means no family is registered under the visit's
// phone number and name; nothing is written in that case.
func (s *Service) RecordVisit(ctx context.Context, visit models.Visit) (models.Visit, error) {
	visit.PhoneNumber = storage.NormalizePhone(visit.PhoneNumber)
	visit.FirstName = storage.NormalizeName(visit.FirstName)
	visit.LastName = storage.NormalizeName(visit.LastName)
	if visit.PhoneNumber == "" || visit.FirstName == "" || visit.LastName == "" || visit.ID < 0 {
		return models.Visit{}, ErrInvalidVisit
	}
	if visit.ID == 0 {
		visit.ID = s.now().UnixMilli()
	}
	if err := s.store.RecordVisit(ctx, storage.KeyForVisit(visit), visit); err != nil {
		return models.Visit{}, fmt.Errorf("record visit %d: %w", visit.ID, err)
	}
	return visit, nil
}

// GetVisit fetches a single visit.
func (s *Service) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	visit, err := s.store.GetVisit(ctx, id)
	if err != nil {
		return models.Visit{}, fmt.Errorf("get visit %d: %w", id, err)
	}
	return visit, nil
}

// ListVisits returns visits whose IDs fall in [from, to); to == 0 is open-ended.
func (s *Service) ListVisits(ctx context.Context, from, to int64) ([]models.Visit, error) {
	visits, err := s.store.ListVisits(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

// RecordWaste stores a waste event keyed by its timestamp; a zero timestamp
// is replaced with the current time. Same-timestamp records overwrite.
func (s *Service) RecordWaste(ctx context.Context, waste models.Waste) (models.Waste, error) {
	if waste.TimeOfWaste < 0 {
		return models.Waste{}, ErrInvalidWaste
	}
	if waste.TimeOfWaste == 0 {
		waste.TimeOfWaste = s.now().UnixMilli()
	}
	if err := s.store.PutWaste(ctx, waste); err != nil {
		return models.Waste{}, fmt.Errorf("record waste %d: %w", waste.TimeOfWaste, err)
	}
	return waste, nil
}

// FetchWaste returns waste recorded at or after query.Since.
func (s *Service) FetchWaste(ctx context.Context, query models.WasteQuery) ([]models.Waste, error) {
	order, err := ParseOrder(string(query.Order))
	if err != nil {
		return nil, err
	}
	query.Order = order
	records, err := s.store.ListWaste(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch waste: %w", err)
	}
	return records, nil
}

// ParseOrder maps a user-supplied order to a models.SortOrder.
func ParseOrder(order string) (models.SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "":
		return models.Unsorted, nil
	case "asc":
		return models.Ascending, nil
	case "desc":
		return models.Descending, nil
	default:
		return "", ErrInvalidOrder
	}
}

func normalizeFamily(family models.Family) (models.Family, error) {
	family.PhoneNumber = storage.NormalizePhone(family.PhoneNumber)
	family.FirstName = storage.NormalizeName(family.FirstName)
	family.LastName = storage.NormalizeName(family.LastName)
	if family.PhoneNumber == "" || family.FirstName == "" || family.LastName == "" {
		return models.Family{}, ErrInvalidFamily
	}
	family.Visits = nil
	return family, nil
}
