package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/hongminglow/carecrate/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	household := map[string]any{"size": float64(3)}
	require.NoError(t, s.PutFamily(ctx, models.Family{
		PhoneNumber: "5550100", MemberID: "Ana Diaz", FirstName: "Ana", LastName: "Diaz", Household: household,
	}))
	household["size"] = float64(99)

	families, err := s.ListFamilies(ctx, "5550100")
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, float64(3), families[0].Household["size"])

	families[0].Household["size"] = float64(42)
	families[0].Visits = append(families[0].Visits, "bogus")

	again, err := s.ListFamilies(ctx, "5550100")
	require.NoError(t, err)
	assert.Equal(t, float64(3), again[0].Household["size"])
	assert.Empty(t, again[0].Visits)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	signals, err := s.WatchVisits(context.Background())
	require.NoError(t, err)

	s.Close()
	select {
	case _, ok := <-signals:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription still open after Close")
	}

	late, err := s.WatchVisits(context.Background())
	require.NoError(t, err)
	_, ok := <-late
	assert.False(t, ok)
}
