package application

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/adapters/cache"
	"github.com/bnema/fleet-carrier-cli/internal/adapters/journal"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
	"github.com/bnema/fleet-carrier-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const carrierID = 7

type fixture struct {
	dir      string
	previous *journalFile
	current  *journalFile
	source   *journal.Directory
}

// newFixture writes a finished session that reported the carrier and a
// live session holding a jump requested at t0.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	previous := newJournal(t, dir, at(-2*time.Hour)).append(
		lineCommander(at(-2*time.Hour), "F1"),
		lineLoadGame(at(-2*time.Hour+time.Second), "F1", 1234),
		lineStats(at(-2*time.Hour+2*time.Minute), carrierID, "ALPHA"),
		lineShutdown(at(-2*time.Hour+3*time.Minute)),
	)
	current := newJournal(t, dir, at(-time.Hour)).append(
		lineCommander(at(-time.Hour), "F1"),
		lineJump(at(0), carrierID, "Sol", at(15*time.Minute)),
	)
	return &fixture{
		dir:      dir,
		previous: previous,
		current:  current,
		source:   journal.NewDirectory([]string{dir}, "", journal.WithLocation(time.UTC)),
	}
}

func (f *fixture) tracker(store ports.SnapshotStore, clock ports.Clock) *Tracker {
	return NewTracker(f.source, journal.NewDecoder(), store, clock, Options{})
}

type carrierSummary struct {
	Name       string
	Fuel       int
	Jumps      []string
	LastCancel int64
	Owner      domain.Owner
	Trades     []string
	StatsAt    int64
}

func summarize(carriers []CarrierView) []carrierSummary {
	out := make([]carrierSummary, 0, len(carriers))
	for _, view := range carriers {
		c := view.Carrier
		s := carrierSummary{Name: c.Name, Owner: c.Owner, StatsAt: c.StatsAt.UnixNano()}
		if c.Fuel != nil {
			s.Fuel = c.Fuel.Level
		}
		for _, jump := range c.Jumps {
			s.Jumps = append(s.Jumps, fmt.Sprintf("%s@%d", jump.Destination.System, jump.Departure.Unix()))
		}
		if !c.LastCancel.IsZero() {
			s.LastCancel = c.LastCancel.Unix()
		}
		for _, order := range c.SortedTrades() {
			s.Trades = append(s.Trades, fmt.Sprintf("%s:%d", order.Commodity, order.Amount()))
		}
		out = append(out, s)
	}
	return out
}

func TestTrackerStatusTimeline(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})

	result, err := tracker.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Restored)
	assert.Equal(t, 2, result.Pass.Segments)
	assert.Equal(t, 6, result.Pass.Events)

	tests := []struct {
		now    time.Time
		status domain.Status
	}{
		{now: at(time.Minute), status: domain.StatusJumping},
		{now: at(16 * time.Minute), status: domain.StatusCoolDown},
		{now: at(20 * time.Minute), status: domain.StatusIdle},
	}
	for _, tt := range tests {
		view, err := tracker.Carrier(carrierID, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.status, view.Evaluation.Status, "at %s", tt.now)
	}

	view, err := tracker.Carrier(carrierID, at(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "ALPHA", view.Carrier.Name)
	assert.Equal(t, "K7Q-1HT", view.Carrier.Callsign)
	assert.Equal(t, domain.Owner{FID: "F1", Name: "Jameson", Credits: 1234}, view.Carrier.Owner)
	require.NotNil(t, view.Evaluation.Destination)
	assert.Equal(t, "Sol", view.Evaluation.Destination.System)
	assert.Equal(t, domain.WeeklyUpkeep(view.Carrier.Services), view.WeeklyUpkeep)

	_, err = tracker.Carrier(99, at(0))
	assert.ErrorIs(t, err, domain.ErrCarrierNotFound)
}

func TestTrackerIngestPicksUpAppends(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)

	f.current.append(lineCancel(at(30*time.Second), carrierID), lineTrade(at(40*time.Second), carrierID, "tritium", 1000))
	pass, err := tracker.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pass.Skipped)
	assert.Equal(t, 2, pass.Events)

	jumps, err := tracker.JumpHistory(carrierID)
	require.NoError(t, err)
	assert.Empty(t, jumps)

	trades, err := tracker.ActiveTrades(carrierID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 1000, trades[0].PurchaseOrder)

	view, err := tracker.Carrier(carrierID, at(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCoolDownCancel, view.Evaluation.Status)
}

func TestTrackerSegmentsView(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)

	segments := tracker.Segments()
	require.Len(t, segments, 2)

	assert.Equal(t, f.previous.path, segments[0].Path)
	assert.False(t, segments[0].Active)
	assert.True(t, segments[0].Skippable)
	assert.Equal(t, domain.OwnerResolved, segments[0].OwnerState)
	assert.Equal(t, []domain.CarrierID{carrierID}, segments[0].Carriers)
	assert.Equal(t, domain.EventSessionTerminated, segments[0].LastEvent)

	assert.True(t, segments[1].Active)
	assert.Equal(t, "F1", segments[1].Owner)
	assert.Equal(t, 2, segments[1].Lines)
}

func TestTrackerStatusChangesAreNotifiedOnce(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)

	ch, cancel := tracker.Subscribe()
	defer cancel()

	var changes []StatusChange
	for _, offset := range []time.Duration{time.Minute, 2 * time.Minute, 16 * time.Minute, 17 * time.Minute, 20 * time.Minute, 30 * time.Minute} {
		changes = append(changes, tracker.RecomputeStatuses(at(offset))...)
	}
	require.Len(t, changes, 3)

	for _, want := range []domain.Status{domain.StatusJumping, domain.StatusCoolDown, domain.StatusIdle} {
		got := receive(t, ch)
		assert.Equal(t, want, got.To)
		assert.Equal(t, domain.CarrierID(carrierID), got.CarrierID)
	}
}

func TestTrackerCacheRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := &fixedClock{now: at(time.Minute)}
	store := cache.NewStore(t.TempDir(), SnapshotVersion, f.source.Roots())

	cold := f.tracker(store, clock)
	result, err := cold.Load(ctx)
	require.NoError(t, err)
	assert.False(t, result.Restored)
	assert.NoError(t, result.Discarded)
	require.NoError(t, cold.SaveCache(ctx))

	warm := f.tracker(store, clock)
	result, err = warm.Load(ctx)
	require.NoError(t, err)
	assert.True(t, result.Restored)
	assert.Equal(t, 1, result.Pass.Skipped)
	assert.Zero(t, result.Pass.Events)
	assert.Equal(t, summarize(cold.Carriers(clock.now)), summarize(warm.Carriers(clock.now)))

	f.current.append(lineJump(at(20*time.Minute), carrierID, "Colonia", at(35*time.Minute)))
	pass, err := warm.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pass.Events)

	jumps, err := warm.JumpHistory(carrierID)
	require.NoError(t, err)
	require.Len(t, jumps, 2)
	assert.Equal(t, "Colonia", jumps[0].Destination.System)

	require.NoError(t, warm.ClearCache(ctx))
	_, err = os.Stat(store.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTrackerDiscardsCacheForTruncatedSegment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := &fixedClock{now: at(time.Minute)}
	store := cache.NewStore(t.TempDir(), SnapshotVersion, f.source.Roots())

	cold := f.tracker(store, clock)
	_, err := cold.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, cold.SaveCache(ctx))

	require.NoError(t, os.WriteFile(f.current.path, []byte(lineCommander(at(-time.Hour), "F1")+"\n"), 0o600))

	warm := f.tracker(store, clock)
	result, err := warm.Load(ctx)
	require.NoError(t, err)
	assert.False(t, result.Restored)
	assert.ErrorIs(t, result.Discarded, domain.ErrSegmentTruncated)

	jumps, err := warm.JumpHistory(carrierID)
	require.NoError(t, err)
	assert.Empty(t, jumps)
}

func TestTrackerReportsTruncationDuringIngest(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.current.path, nil, 0o600))
	pass, err := tracker.Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, pass.Failed, 1)
	assert.ErrorIs(t, pass.Failed[0].Err, domain.ErrSegmentTruncated)
	assert.True(t, pass.truncated())
}

func TestTrackerLoadDiscardsUnusableCache(t *testing.T) {
	tests := []struct {
		name  string
		setup func(store *mocks.MockSnapshotStore)
	}{
		{
			name: "corrupt blob",
			setup: func(store *mocks.MockSnapshotStore) {
				store.EXPECT().Load(mock.Anything, mock.Anything).Return(fmt.Errorf("%w: unexpected EOF", domain.ErrSnapshotInvalid))
			},
		},
		{
			name: "version mismatch",
			setup: func(store *mocks.MockSnapshotStore) {
				store.EXPECT().Load(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, v any) error {
					v.(*Snapshot).Version = SnapshotVersion + 1
					return nil
				})
			},
		},
		{
			name: "roots differ",
			setup: func(store *mocks.MockSnapshotStore) {
				store.EXPECT().Load(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, v any) error {
					snap := v.(*Snapshot)
					snap.Version = SnapshotVersion
					snap.Roots = []string{"/somewhere/else"}
					return nil
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			store := mocks.NewMockSnapshotStore(t)
			tt.setup(store)
			store.EXPECT().Delete(mock.Anything).Return(nil).Once()

			result, err := f.tracker(store, &fixedClock{now: at(time.Minute)}).Load(context.Background())
			require.NoError(t, err)
			assert.False(t, result.Restored)
			assert.ErrorIs(t, result.Discarded, domain.ErrSnapshotInvalid)
			assert.Equal(t, 6, result.Pass.Events)
		})
	}
}

func TestTrackerLoadWithoutCacheFile(t *testing.T) {
	f := newFixture(t)
	store := mocks.NewMockSnapshotStore(t)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(at(time.Minute))
	store.EXPECT().Load(mock.Anything, mock.Anything).Return(domain.ErrSnapshotNotFound).Once()
	store.EXPECT().Save(mock.Anything, mock.AnythingOfType("application.Snapshot")).
		Run(func(_ context.Context, v any) {
			snap := v.(Snapshot)
			assert.Equal(t, SnapshotVersion, snap.Version)
			assert.Len(t, snap.Segments, 2)
			assert.Equal(t, at(time.Minute), snap.SavedAt)
		}).
		Return(nil).Once()

	tracker := f.tracker(store, clock)
	result, err := tracker.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Restored)
	assert.NoError(t, result.Discarded)
	require.NoError(t, tracker.SaveCache(context.Background()))
}

func TestTrackerLoadFailsWithoutJournalRoot(t *testing.T) {
	source := journal.NewDirectory([]string{t.TempDir() + "/missing"}, "")
	tracker := NewTracker(source, journal.NewDecoder(), nil, &fixedClock{now: t0}, Options{})

	_, err := tracker.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoJournalRoot)
}

func TestTrackerRebuildMatchesIncremental(t *testing.T) {
	f := newFixture(t)
	tracker := f.tracker(nil, &fixedClock{now: at(time.Minute)})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)
	f.current.append(lineTrade(at(time.Minute), carrierID, "gold", 20))
	_, err = tracker.Ingest(context.Background())
	require.NoError(t, err)

	before := summarize(tracker.Carriers(at(time.Minute)))
	require.NoError(t, tracker.Rebuild(context.Background()))
	assert.Equal(t, before, summarize(tracker.Carriers(at(time.Minute))))
}

func TestTrackerRunNotifiesAndSaves(t *testing.T) {
	f := newFixture(t)
	store := cache.NewStore(t.TempDir(), SnapshotVersion, f.source.Roots())
	tracker := NewTracker(f.source, journal.NewDecoder(), store, &fixedClock{now: at(time.Minute)}, Options{
		IngestInterval: 10 * time.Millisecond,
		StatusInterval: 10 * time.Millisecond,
	})
	_, err := tracker.Load(context.Background())
	require.NoError(t, err)

	ch, cancelSub := tracker.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	triggers := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- tracker.Run(ctx, triggers) }()

	assert.Equal(t, domain.StatusJumping, receive(t, ch).To)

	f.current.append(lineCancel(at(30*time.Second), carrierID))
	triggers <- f.current.path
	assert.Equal(t, domain.StatusCoolDownCancel, receive(t, ch).To)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	requireClosed(t, ch)

	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}
