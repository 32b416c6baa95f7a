package pantry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/hongminglow/carecrate/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return NewService(store), store
}

func TestLegacyFamilyRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	family := models.Family{
		PhoneNumber: "(555) 010-2000",
		FirstName:   "Ana",
		LastName:    "Diaz",
		Household:   map[string]any{"adults": float64(2), "children": float64(3)},
	}
	require.NoError(t, svc.SaveLegacyFamily(ctx, family))

	got, found, err := svc.FetchLegacyFamily(ctx, "555-010-2000")
	require.NoError(t, err)
	require.True(t, found, "legacy fetch must read the collection legacy save writes")
	assert.Equal(t, "5550102000", got.PhoneNumber)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Diaz", got.LastName)
	assert.Equal(t, family.Household, got.Household)
}

func TestFetchLegacyFamilyAbsent(t *testing.T) {
	svc, _ := newTestService(t)

	got, found, err := svc.FetchLegacyFamily(context.Background(), "5550109999")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, models.Family{}, got)
}

func TestAppendFamilyYieldsDistinctEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 4
	keys := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		key, err := svc.AppendFamily(ctx, models.Family{
			PhoneNumber: "555 010 3000",
			FirstName:   "Lee",
			LastName:    "Chen",
			Household:   map[string]any{"visit": float64(i)},
		})
		require.NoError(t, err)
		assert.Equal(t, "5550103000", key.PhoneNumber)
		keys[key.MemberID] = struct{}{}
	}
	assert.Len(t, keys, n)

	families, err := svc.ListFamilies(ctx, "5550103000")
	require.NoError(t, err)
	require.Len(t, families, n)
	for _, f := range families {
		_, ok := keys[f.MemberID]
		assert.True(t, ok, "unexpected member %q", f.MemberID)
	}
}

func TestRegisterFamilyOverwritesByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RegisterFamily(ctx, models.Family{PhoneNumber: "5550104000", FirstName: "Kim", LastName: "Park"})
	require.NoError(t, err)
	second, err := svc.RegisterFamily(ctx, models.Family{
		PhoneNumber: "5550104000", FirstName: " Kim ", LastName: "Park", Household: map[string]any{"size": float64(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "Kim Park", first.MemberID)

	_, err = svc.RegisterFamily(ctx, models.Family{PhoneNumber: "5550104000", FirstName: "Joon", LastName: "Park"})
	require.NoError(t, err)

	families, err := svc.ListFamilies(ctx, "5550104000")
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "Joon Park", families[0].MemberID)
	assert.Equal(t, "Kim Park", families[1].MemberID)
	assert.Equal(t, float64(5), families[1].Household["size"])
}

func TestRecordVisitTwiceAppendsOnce(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterFamily(ctx, models.Family{PhoneNumber: "5550105000", FirstName: "Sam", LastName: "Reed"})
	require.NoError(t, err)

	visit := models.Visit{ID: 1_700_000_000_000, PhoneNumber: "555-010-5000", FirstName: "Sam", LastName: "Reed"}
	for i := 0; i < 2; i++ {
		_, err := svc.RecordVisit(ctx, visit)
		require.NoError(t, err)
	}

	got, err := store.GetVisit(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "5550105000", got.PhoneNumber)

	families, err := svc.ListFamilies(ctx, "5550105000")
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, []string{"1700000000000"}, families[0].Visits)
}

func TestRecordVisitAssignsID(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	_, err := svc.RegisterFamily(ctx, models.Family{PhoneNumber: "5550106000", FirstName: "Ola", LastName: "Nwosu"})
	require.NoError(t, err)

	visit, err := svc.RecordVisit(ctx, models.Visit{PhoneNumber: "5550106000", FirstName: "Ola", LastName: "Nwosu"})
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), visit.ID)
}

func TestRecordVisitUnknownFamily(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordVisit(ctx, models.Visit{ID: 42, PhoneNumber: "5550107000", FirstName: "No", LastName: "Body"})
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetVisit(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound, "visit must not be written when the family is missing")
}

func TestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveLegacyFamily(ctx, models.Family{FirstName: "A", LastName: "B"}), ErrInvalidFamily)
	_, err := svc.RegisterFamily(ctx, models.Family{PhoneNumber: "5550108000", LastName: "B"})
	assert.ErrorIs(t, err, ErrInvalidFamily)
	_, err = svc.AppendFamily(ctx, models.Family{PhoneNumber: "---", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, ErrInvalidFamily)
	_, _, err = svc.FetchLegacyFamily(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidFamily)
	_, err = svc.ListFamilies(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidFamily)
	_, err = svc.RecordVisit(ctx, models.Visit{PhoneNumber: "5550108000", FirstName: "A"})
	assert.ErrorIs(t, err, ErrInvalidVisit)
	_, err = svc.RecordWaste(ctx, models.Waste{TimeOfWaste: -1})
	assert.ErrorIs(t, err, ErrInvalidWaste)
	_, err = svc.FetchWaste(ctx, models.WasteQuery{Order: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestFetchWasteSinceBound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, ts := range []int64{1000, 3000, 2000, 4000} {
		_, err := svc.RecordWaste(ctx, models.Waste{TimeOfWaste: ts, Metadata: map[string]any{"item": fmt.Sprintf("crate-%d", ts)}})
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query models.WasteQuery
		want  []int64
	}{
		{name: "ascending", query: models.WasteQuery{Since: 2000, Order: "asc"}, want: []int64{2000, 3000, 4000}},
		{name: "descending", query: models.WasteQuery{Since: 2000, Order: "DESC"}, want: []int64{4000, 3000, 2000}},
		{name: "everything", query: models.WasteQuery{Order: "asc"}, want: []int64{1000, 2000, 3000, 4000}},
		{name: "nothing after bound", query: models.WasteQuery{Since: 5000}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := svc.FetchWaste(ctx, tt.query)
			require.NoError(t, err)
			got := make([]int64, 0, len(records))
			for _, r := range records {
				got = append(got, r.TimeOfWaste)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	unsorted, err := svc.FetchWaste(ctx, models.WasteQuery{Since: 3000})
	require.NoError(t, err)
	assert.Len(t, unsorted, 2)
}

func TestRecordWasteAssignsTimestamp(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	waste, err := svc.RecordWaste(context.Background(), models.Waste{Metadata: map[string]any{"lbs": float64(12)}})
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), waste.TimeOfWaste)
}

type failingStore struct {
	*memory.Store
	err error
}

func (f *failingStore) PutWaste(context.Context, models.Waste) error { return f.err }

func TestStoreErrorsAreWrapped(t *testing.T) {
	inner, err := memory.NewStore()
	require.NoError(t, err)
	defer inner.Close()

	boom := errors.New("disk on fire")
	svc := NewService(&failingStore{Store: inner, err: boom})

	_, err = svc.RecordWaste(context.Background(), models.Waste{TimeOfWaste: 10})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "record waste 10")
}
