package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/carecrate/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// FamilyStore persists legacy root records and nested family records.
type FamilyStore interface {
	// PutLegacyFamily overwrites the root record keyed by phone number.
	PutLegacyFamily(ctx context.Context, family models.Family) error
	// GetLegacyFamily reads the root record written by PutLegacyFamily.
	GetLegacyFamily(ctx context.Context, phone string) (models.Family, error)
	// PutFamily overwrites the profile of the nested record at family's key,
	// keeping any visits already referenced from it.
	PutFamily(ctx context.Context, family models.Family) error
	// InsertFamily adds a nested record; the key must not exist yet.
	InsertFamily(ctx context.Context, family models.Family) error
	// ListFamilies returns every nested record under phone, ordered by member ID.
	ListFamilies(ctx context.Context, phone string) ([]models.Family, error)
}

// VisitStore persists check-ins.
type VisitStore interface {
	// RecordVisit writes the visit and adds its key to the owning family's
	// visit list in one atomic commit. ErrNotFound when the family is missing.
	RecordVisit(ctx context.Context, key models.FamilyKey, visit models.Visit) error
	GetVisit(ctx context.Context, id int64) (models.Visit, error)
	// ListVisits returns visits with from <= ID < to ordered by ID. A zero
	// to means no upper bound.
	ListVisits(ctx context.Context, from, to int64) ([]models.Visit, error)
}

// WasteStore persists waste events.
type WasteStore interface {
	PutWaste(ctx context.Context, waste models.Waste) error
	ListWaste(ctx context.Context, query models.WasteQuery) ([]models.Waste, error)
}

// StaffStore captures persistence operations needed by the session handlers.
type StaffStore interface {
	CreateStaff(ctx context.Context, user models.StaffUser) (models.StaffUser, error)
	FindStaffByUsernameOrEmail(ctx context.Context, identifier string) (models.StaffUser, error)
}

// VisitWatcher opens change subscriptions on the visit collection. The
// returned channel receives a signal after every committed visit write and
// is closed once ctx is done or the subscription fails.
type VisitWatcher interface {
	WatchVisits(ctx context.Context) (<-chan struct{}, error)
}

// Store is everything a backend provides.
type Store interface {
	FamilyStore
	VisitStore
	WasteStore
	StaffStore
	VisitWatcher
	Close()
}
