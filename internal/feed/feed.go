// Package feed keeps a live list of today's visits in sync with the store.
//
// A Feed moves through Uninitialized -> Subscribed -> TornDown exactly once.
// It reaches TornDown through Close or when its subscription ends on its own.
// Every change notification re-reads the whole matching set and replaces the
// local list; there is no incremental diffing.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/storage"
)

// ErrTornDown is returned by Start once the feed has been closed.
var ErrTornDown = errors.New("visit feed has been torn down")

// ErrSubscriptionLost is reported by Err when the feed tore itself down
// because the change subscription ended without Close.
var ErrSubscriptionLost = errors.New("visit subscription ended")

// State is the lifecycle position of a Feed.
type State int

const (
	Uninitialized State = iota
	Subscribed
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Subscribed:
		return "subscribed"
	case TornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source is what the feed reads from.
type Source interface {
	storage.VisitWatcher
	ListVisits(ctx context.Context, from, to int64) ([]models.Visit, error)
}

// Option customizes a Feed.
type Option func(*Feed)

// WithLocation sets the time zone whose midnight starts the day. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(f *Feed) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

// Feed is a standing query on visits with ID >= start of the current day.
type Feed struct {
	source Source
	now    func() time.Time
	loc    *time.Location

	// startMu serializes Start; mu guards everything below and is never
	// held across a call into the source.
	startMu sync.Mutex

	mu       sync.Mutex
	state    State
	err      error
	dayStart time.Time
	visits   []models.Visit
	updates  chan []models.Visit
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns an unstarted feed.
func New(source Source, opts ...Option) *Feed {
	f := &Feed{
		source:  source,
		now:     time.Now,
		loc:     time.UTC,
		visits:  []models.Visit{},
		updates: make(chan []models.Visit, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start subscribes and loads the first snapshot. Calling it again while
// subscribed does nothing; calling it after Close, or after the subscription
// ended, returns ErrTornDown. Close may run while Start is in progress.
func (f *Feed) Start(ctx context.Context) error {
	f.startMu.Lock()
	defer f.startMu.Unlock()

	f.mu.Lock()
	switch f.state {
	case Subscribed:
		f.mu.Unlock()
		return nil
	case TornDown:
		f.mu.Unlock()
		return ErrTornDown
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	signals, err := f.source.WatchVisits(runCtx)
	if err != nil {
		return f.abortStart(cancel, fmt.Errorf("subscribe to visits: %w", err))
	}

	dayStart := StartOfDay(f.now(), f.loc)
	visits, err := f.load(runCtx, dayStart)
	if err != nil {
		return f.abortStart(cancel, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == TornDown {
		cancel()
		return ErrTornDown
	}
	f.state = Subscribed
	f.dayStart = dayStart
	f.done = make(chan struct{})
	f.publishLocked(visits)

	go f.run(runCtx, signals, f.done)
	return nil
}

func (f *Feed) abortStart(cancel context.CancelFunc, err error) error {
	cancel()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == TornDown {
		return ErrTornDown
	}
	f.cancel = nil
	return err
}

// Close tears the subscription down. No update is delivered after Close
// returns and the Updates channel is closed. Close is idempotent.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.state == TornDown {
		f.mu.Unlock()
		return nil
	}
	wasSubscribed := f.state == Subscribed
	f.state = TornDown
	close(f.updates)
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasSubscribed {
		<-done
	}
	return nil
}

// Err reports why the feed tore itself down, or nil.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// State reports the lifecycle position.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Visits returns a copy of the current list.
func (f *Feed) Visits() []models.Visit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.visits)
}

// DayStart is the boundary the current list is filtered on.
func (f *Feed) DayStart() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dayStart
}

// Updates delivers each new list. Only the latest undelivered list is kept.
func (f *Feed) Updates() <-chan []models.Visit {
	return f.updates
}

func (f *Feed) run(ctx context.Context, signals <-chan struct{}, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(f.untilNextDay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			f.expire(context.Cause(ctx))
			return
		case _, ok := <-signals:
			if !ok {
				cause := context.Cause(ctx)
				if cause == nil {
					cause = errors.New("change channel closed")
				}
				f.expire(cause)
				return
			}
		case <-timer.C:
			f.mu.Lock()
			f.dayStart = StartOfDay(f.now(), f.loc)
			f.mu.Unlock()
			timer.Reset(f.untilNextDay())
		}

		f.mu.Lock()
		dayStart := f.dayStart
		f.mu.Unlock()

		visits, err := f.load(ctx, dayStart)
		if err != nil {
			if ctx.Err() != nil {
				f.expire(context.Cause(ctx))
				return
			}
			log.Printf("visit feed: %v", err)
			continue
		}
		f.publish(visits)
	}
}

// expire moves a feed whose subscription ended without Close to TornDown.
func (f *Feed) expire(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == TornDown {
		return
	}
	f.state = TornDown
	f.err = fmt.Errorf("%w: %w", ErrSubscriptionLost, cause)
	close(f.updates)
	f.cancel()
	log.Printf("visit feed: %v", f.err)
}

func (f *Feed) load(ctx context.Context, dayStart time.Time) ([]models.Visit, error) {
	visits, err := f.source.ListVisits(ctx, dayStart.UnixMilli(), 0)
	if err != nil {
		return nil, fmt.Errorf("load visits since %s: %w", dayStart.Format(time.RFC3339), err)
	}
	bound := dayStart.UnixMilli()
	return slices.DeleteFunc(visits, func(v models.Visit) bool { return v.ID < bound }), nil
}

func (f *Feed) publish(visits []models.Visit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishLocked(visits)
}

func (f *Feed) publishLocked(visits []models.Visit) {
	if f.state != Subscribed {
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	f.visits = visits
	select {
	case <-f.updates:
	default:
	}
	f.updates <- slices.Clone(visits)
}

func (f *Feed) untilNextDay() time.Duration {
	now := f.now()
	next := StartOfDay(now, f.loc).AddDate(0, 0, 1)
	if d := next.Sub(now); d > 0 {
		return d
	}
	return time.Second
}

// StartOfDay is midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
