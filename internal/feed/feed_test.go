package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/hongminglow/carecrate/internal/storage/memory"
)

const waitFor = 2 * time.Second

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type countingSource struct {
	*memory.Store
	watches atomic.Int32
}

func (s *countingSource) WatchVisits(ctx context.Context) (<-chan struct{}, error) {
	s.watches.Add(1)
	return s.Store.WatchVisits(ctx)
}

type brokenSource struct{ *memory.Store }

func (brokenSource) WatchVisits(context.Context) (<-chan struct{}, error) {
	return nil, errors.New("listen refused")
}

// manualSource hands out a signal channel the test controls.
type manualSource struct {
	*memory.Store
	signals chan struct{}
}

func (s *manualSource) WatchVisits(context.Context) (<-chan struct{}, error) {
	return s.signals, nil
}

// stallingSource blocks WatchVisits until its context is cancelled.
type stallingSource struct {
	*memory.Store
	entered chan struct{}
}

func (s *stallingSource) WatchVisits(ctx context.Context) (<-chan struct{}, error) {
	close(s.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.PutFamily(context.Background(), models.Family{
		PhoneNumber: "5550102000",
		MemberID:    storage.MemberKey("Ana", "Diaz"),
		FirstName:   "Ana",
		LastName:    "Diaz",
	}))
	return store
}

func recordAt(t *testing.T, store *memory.Store, at time.Time) models.Visit {
	t.Helper()
	visit := models.Visit{
		ID:          at.UnixMilli(),
		PhoneNumber: "5550102000",
		FirstName:   "Ana",
		LastName:    "Diaz",
	}
	require.NoError(t, store.RecordVisit(context.Background(), storage.KeyForVisit(visit), visit))
	return visit
}

func requireUpdatesClosed(t *testing.T, f *Feed) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case _, ok := <-f.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Updates still open")
		}
	}
}

func ids(visits []models.Visit) []int64 {
	out := make([]int64, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.ID)
	}
	return out
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	cases := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			name: "utc afternoon",
			in:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exact midnight",
			in:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "early utc is previous local day",
			in:   time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC),
			loc:  loc,
			want: time.Date(2026, 3, 13, 0, 0, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StartOfDay(tc.in, tc.loc)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestFeedInitialSnapshotExcludesEarlierDays(t *testing.T) {
	store := newStore(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	yesterday := recordAt(t, store, now.Add(-24*time.Hour))
	morning := recordAt(t, store, now.Add(-3*time.Hour))

	f := New(store, WithClock(func() time.Time { return now }))
	require.NoError(t, f.Start(context.Background()))
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, Subscribed, f.State())
	assert.Equal(t, []int64{morning.ID}, ids(f.Visits()))
	assert.NotContains(t, ids(f.Visits()), yesterday.ID)

	select {
	case got := <-f.Updates():
		assert.Equal(t, []int64{morning.ID}, ids(got))
	case <-time.After(waitFor):
		t.Fatal("expected initial snapshot on Updates")
	}
}

func TestFeedPicksUpNewVisits(t *testing.T) {
	store := newStore(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	f := New(store, WithClock(func() time.Time { return now }))
	require.NoError(t, f.Start(context.Background()))
	t.Cleanup(func() { _ = f.Close() })
	assert.Empty(t, f.Visits())

	visit := recordAt(t, store, now)
	recordAt(t, store, now.Add(-36*time.Hour))

	assert.Eventually(t, func() bool {
		got := f.Visits()
		return len(got) == 1 && got[0].ID == visit.ID
	}, waitFor, 10*time.Millisecond)
}

func TestFeedCloseStopsUpdates(t *testing.T) {
	store := newStore(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	f := New(store, WithClock(func() time.Time { return now }))
	require.NoError(t, f.Start(context.Background()))
	require.NoError(t, f.Close())
	assert.Equal(t, TornDown, f.State())

	before := f.Visits()
	recordAt(t, store, now)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, f.Visits())

	for range f.Updates() {
	}

	require.NoError(t, f.Close(), "close is idempotent")
	assert.ErrorIs(t, f.Start(context.Background()), ErrTornDown)
}

func TestFeedSecondStartIsNoop(t *testing.T) {
	src := &countingSource{Store: newStore(t)}

	f := New(src)
	require.NoError(t, f.Start(context.Background()))
	require.NoError(t, f.Start(context.Background()))
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, int32(1), src.watches.Load())
}

func TestFeedCloseBeforeStart(t *testing.T) {
	f := New(newStore(t))
	require.NoError(t, f.Close())
	assert.Equal(t, TornDown, f.State())
	assert.ErrorIs(t, f.Start(context.Background()), ErrTornDown)
}

func TestFeedStartFailureLeavesFeedUninitialized(t *testing.T) {
	f := New(brokenSource{Store: newStore(t)})
	err := f.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, Uninitialized, f.State())
}

func TestFeedRollsOverAtMidnight(t *testing.T) {
	store := newStore(t)
	clock := &fakeClock{now: time.Date(2026, 3, 14, 23, 59, 59, 900_000_000, time.UTC)}
	late := recordAt(t, store, clock.Now().Add(-time.Minute))

	f := New(store, WithClock(clock.Now))
	require.NoError(t, f.Start(context.Background()))
	t.Cleanup(func() { _ = f.Close() })
	require.Equal(t, []int64{late.ID}, ids(f.Visits()))

	nextDay := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	clock.Set(nextDay.Add(100 * time.Millisecond))

	assert.Eventually(t, func() bool {
		return f.DayStart().Equal(nextDay) && len(f.Visits()) == 0
	}, waitFor, 10*time.Millisecond)
}

func TestFeedTearsDownWhenSignalsEnd(t *testing.T) {
	src := &manualSource{Store: newStore(t), signals: make(chan struct{})}

	f := New(src)
	require.NoError(t, f.Start(context.Background()))
	close(src.signals)

	assert.Eventually(t, func() bool { return f.State() == TornDown }, waitFor, 10*time.Millisecond)
	requireUpdatesClosed(t, f)
	assert.ErrorIs(t, f.Err(), ErrSubscriptionLost)
	assert.ErrorIs(t, f.Start(context.Background()), ErrTornDown)
	require.NoError(t, f.Close())
}

func TestFeedTearsDownWhenStoreCloses(t *testing.T) {
	store := newStore(t)

	f := New(store)
	require.NoError(t, f.Start(context.Background()))
	store.Close()

	assert.Eventually(t, func() bool { return f.State() == TornDown }, waitFor, 10*time.Millisecond)
	requireUpdatesClosed(t, f)
	assert.ErrorIs(t, f.Err(), ErrSubscriptionLost)
	assert.ErrorIs(t, f.Start(context.Background()), ErrTornDown)
}

func TestFeedTearsDownWhenStartContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := New(newStore(t))
	require.NoError(t, f.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return f.State() == TornDown }, waitFor, 10*time.Millisecond)
	requireUpdatesClosed(t, f)
	assert.ErrorIs(t, f.Err(), context.Canceled)
}

func TestFeedCloseDuringStart(t *testing.T) {
	src := &stallingSource{Store: newStore(t), entered: make(chan struct{})}
	f := New(src)

	started := make(chan error, 1)
	go func() { started <- f.Start(context.Background()) }()
	<-src.entered

	closed := make(chan State, 1)
	go func() {
		st := f.State()
		_ = f.Close()
		closed <- st
	}()

	select {
	case st := <-closed:
		assert.Equal(t, Uninitialized, st)
	case <-time.After(waitFor):
		t.Fatal("State and Close blocked behind Start")
	}

	select {
	case err := <-started:
		assert.ErrorIs(t, err, ErrTornDown)
	case <-time.After(waitFor):
		t.Fatal("Start did not return after Close")
	}
	assert.Equal(t, TornDown, f.State())
	assert.NoError(t, f.Err())
	requireUpdatesClosed(t, f)
}
