// Package memory is an in-process storage backend built on go-memdb. It is
// used for local development and tests; data does not survive a restart.
package memory

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-memdb"

	"github.com/hongminglow/carecrate/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const (
	accountsTable = "accounts"
	membersTable  = "members"
	visitsTable   = "visits"
	wasteTable    = "waste"
	staffTable    = "staff"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			accountsTable: {
				Name: accountsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "PhoneNumber"},
					},
				},
			},
			membersTable: {
				Name: membersTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "PhoneNumber"},
								&memdb.StringFieldIndex{Field: "MemberID"},
							},
						},
					},
					"phone": {
						Name:    "phone",
						Indexer: &memdb.StringFieldIndex{Field: "PhoneNumber"},
					},
				},
			},
			visitsTable: {
				Name: visitsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
				},
			},
			wasteTable: {
				Name: wasteTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "TimeOfWaste"},
					},
				},
			},
			staffTable: {
				Name: staffTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"username": {
						Name:    "username",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Username"},
					},
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email"},
					},
				},
			},
		},
	}
}

// Store keeps every collection in a go-memdb database.
type Store struct {
	db       *memdb.MemDB
	notifier *storage.Notifier

	mu     sync.Mutex
	nextID int64
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db, notifier: storage.NewNotifier()}, nil
}

// Close drops every open visit subscription.
func (s *Store) Close() {
	s.notifier.Close()
}
