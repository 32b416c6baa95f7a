// Package storagetest holds behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

// Run exercises a backend. newStore must return an empty store; phone numbers
// are made unique per run so a shared database can be reused.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	suffix := fmt.Sprintf("%07d", time.Now().UnixNano()%10_000_000)
	phone := func(prefix string) string { return prefix + suffix }

	t.Run("LegacyRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		family := models.Family{
			PhoneNumber: phone("100"),
			FirstName:   "Ana",
			LastName:    "Diaz",
			Household:   map[string]any{"size": float64(4)},
		}
		require.NoError(t, s.PutLegacyFamily(ctx, family))

		got, err := s.GetLegacyFamily(ctx, family.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, family.FirstName, got.FirstName)
		assert.Equal(t, family.LastName, got.LastName)
		assert.Equal(t, family.Household, got.Household)

		family.FirstName = "Ana Maria"
		require.NoError(t, s.PutLegacyFamily(ctx, family))
		got, err = s.GetLegacyFamily(ctx, family.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", got.FirstName)
	})

	t.Run("LegacyMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetLegacyFamily(context.Background(), phone("101"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("InsertDistinctMembers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := phone("102")
		for i := 0; i < 3; i++ {
			require.NoError(t, s.InsertFamily(ctx, models.Family{
				PhoneNumber: p,
				MemberID:    fmt.Sprintf("member-%d", i),
				FirstName:   "Lee",
				LastName:    "Chen",
			}))
		}
		err := s.InsertFamily(ctx, models.Family{PhoneNumber: p, MemberID: "member-0", FirstName: "Lee", LastName: "Chen"})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		families, err := s.ListFamilies(ctx, p)
		require.NoError(t, err)
		require.Len(t, families, 3)
		for i, f := range families {
			assert.Equal(t, fmt.Sprintf("member-%d", i), f.MemberID)
			assert.Empty(t, f.Visits)
		}
	})

	t.Run("ListFamiliesEmpty", func(t *testing.T) {
		s := newStore(t)
		families, err := s.ListFamilies(context.Background(), phone("103"))
		require.NoError(t, err)
		assert.NotNil(t, families)
		assert.Empty(t, families)
	})

	t.Run("RecordVisitIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := models.FamilyKey{PhoneNumber: phone("104"), MemberID: "Ana Diaz"}
		require.NoError(t, s.PutFamily(ctx, models.Family{
			PhoneNumber: key.PhoneNumber, MemberID: key.MemberID, FirstName: "Ana", LastName: "Diaz",
		}))

		visit := models.Visit{ID: time.Now().UnixMilli(), PhoneNumber: key.PhoneNumber, FirstName: "Ana", LastName: "Diaz"}
		require.NoError(t, s.RecordVisit(ctx, key, visit))
		require.NoError(t, s.RecordVisit(ctx, key, visit))

		got, err := s.GetVisit(ctx, visit.ID)
		require.NoError(t, err)
		assert.Equal(t, visit.PhoneNumber, got.PhoneNumber)

		families, err := s.ListFamilies(ctx, key.PhoneNumber)
		require.NoError(t, err)
		require.Len(t, families, 1)
		assert.Equal(t, []string{visit.Key()}, families[0].Visits)

		// Re-registering the profile keeps the visit list.
		require.NoError(t, s.PutFamily(ctx, models.Family{
			PhoneNumber: key.PhoneNumber, MemberID: key.MemberID, FirstName: "Ana", LastName: "Diaz",
			Household: map[string]any{"size": float64(2)},
		}))
		families, err = s.ListFamilies(ctx, key.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, []string{visit.Key()}, families[0].Visits)
	})

	t.Run("RecordVisitMissingFamilyWritesNothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		visit := models.Visit{ID: time.Now().UnixMilli() + 7, PhoneNumber: phone("105"), FirstName: "No", LastName: "One"}
		err := s.RecordVisit(ctx, models.FamilyKey{PhoneNumber: visit.PhoneNumber, MemberID: "No One"}, visit)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.GetVisit(ctx, visit.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListVisitsRange", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := models.FamilyKey{PhoneNumber: phone("106"), MemberID: "Kim Park"}
		require.NoError(t, s.PutFamily(ctx, models.Family{
			PhoneNumber: key.PhoneNumber, MemberID: key.MemberID, FirstName: "Kim", LastName: "Park",
		}))
		base := int64(1_000_000_000_000) + time.Now().UnixNano()%1_000_000*1000
		for _, offset := range []int64{30, 10, 20} {
			require.NoError(t, s.RecordVisit(ctx, key, models.Visit{
				ID: base + offset, PhoneNumber: key.PhoneNumber, FirstName: "Kim", LastName: "Park",
			}))
		}

		visits, err := s.ListVisits(ctx, base+10, base+30)
		require.NoError(t, err)
		require.Len(t, visits, 2)
		assert.Equal(t, base+10, visits[0].ID)
		assert.Equal(t, base+20, visits[1].ID)

		visits, err = s.ListVisits(ctx, base+20, 0)
		require.NoError(t, err)
		ids := make([]int64, 0, len(visits))
		for _, v := range visits {
			if v.PhoneNumber == key.PhoneNumber {
				ids = append(ids, v.ID)
			}
		}
		assert.Equal(t, []int64{base + 20, base + 30}, ids)
	})

	t.Run("WasteQuery", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := int64(2_000_000_000_000) + time.Now().UnixNano()%1_000_000*1000
		for _, offset := range []int64{5, 1, 3} {
			require.NoError(t, s.PutWaste(ctx, models.Waste{
				TimeOfWaste: base + offset,
				Metadata:    map[string]any{"lbs": float64(offset)},
			}))
		}
		require.NoError(t, s.PutWaste(ctx, models.Waste{TimeOfWaste: base + 5, Metadata: map[string]any{"lbs": float64(50)}}))

		asc, err := s.ListWaste(ctx, models.WasteQuery{Since: base + 3, Order: models.Ascending})
		require.NoError(t, err)
		require.Len(t, asc, 2)
		assert.Equal(t, base+3, asc[0].TimeOfWaste)
		assert.Equal(t, base+5, asc[1].TimeOfWaste)
		assert.Equal(t, float64(50), asc[1].Metadata["lbs"])

		desc, err := s.ListWaste(ctx, models.WasteQuery{Since: base, Order: models.Descending})
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(desc), 3)
		assert.Equal(t, base+5, desc[0].TimeOfWaste)

		unsorted, err := s.ListWaste(ctx, models.WasteQuery{Since: base + 2})
		require.NoError(t, err)
		got := make([]int64, 0, len(unsorted))
		for _, w := range unsorted {
			got = append(got, w.TimeOfWaste)
		}
		assert.ElementsMatch(t, []int64{base + 3, base + 5}, got)
	})

	t.Run("StaffUniqueness", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := models.StaffUser{
			Username:     "vol" + suffix,
			Email:        "vol" + suffix + "@example.com",
			DisplayName:  "Volunteer",
			Role:         models.VolunteerRole,
			PasswordHash: "hash",
		}
		created, err := s.CreateStaff(ctx, user)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		_, err = s.CreateStaff(ctx, user)
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		byEmail, err := s.FindStaffByUsernameOrEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)

		_, err = s.FindStaffByUsernameOrEmail(ctx, "nobody"+suffix)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("WatchVisitsSignalsAndCloses", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		signals, err := s.WatchVisits(ctx)
		require.NoError(t, err)

		key := models.FamilyKey{PhoneNumber: phone("107"), MemberID: "Sam Reed"}
		require.NoError(t, s.PutFamily(context.Background(), models.Family{
			PhoneNumber: key.PhoneNumber, MemberID: key.MemberID, FirstName: "Sam", LastName: "Reed",
		}))
		require.NoError(t, s.RecordVisit(context.Background(), key, models.Visit{
			ID: time.Now().UnixMilli() + 11, PhoneNumber: key.PhoneNumber, FirstName: "Sam", LastName: "Reed",
		}))

		select {
		case _, ok := <-signals:
			require.True(t, ok, "subscription closed before signalling")
		case <-time.After(5 * time.Second):
			t.Fatal("no change signal after RecordVisit")
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-signals:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}
