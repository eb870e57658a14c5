package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
)

const (
	DefaultIngestInterval   = 2 * time.Second
	DefaultStatusInterval   = 250 * time.Millisecond
	DefaultSaveInterval     = time.Minute
	DefaultCompactThreshold = 50_000
)

type Options struct {
	Cooldowns        domain.Cooldowns
	OwnershipGrace   time.Duration
	IngestInterval   time.Duration
	StatusInterval   time.Duration
	SaveInterval     time.Duration
	CompactThreshold int
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Cooldowns.Jump <= 0 {
		o.Cooldowns.Jump = domain.DefaultJumpCooldown
	}
	if o.Cooldowns.Cancel <= 0 {
		o.Cooldowns.Cancel = domain.DefaultCancelCooldown
	}
	if o.OwnershipGrace <= 0 {
		o.OwnershipGrace = DefaultOwnershipGrace
	}
	if o.IngestInterval <= 0 {
		o.IngestInterval = DefaultIngestInterval
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	if o.SaveInterval <= 0 {
		o.SaveInterval = DefaultSaveInterval
	}
	if o.CompactThreshold == 0 {
		o.CompactThreshold = DefaultCompactThreshold
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type SegmentError struct {
	Segment string
	Err     error
}

type PassResult struct {
	Segments  int
	Read      int
	Skipped   int
	Events    int
	Malformed int
	Failed    []SegmentError
	Abandoned []string
	Compacted int
}

func (r PassResult) truncated() bool {
	for _, failure := range r.Failed {
		if errors.Is(failure.Err, domain.ErrSegmentTruncated) {
			return true
		}
	}
	return false
}

type LoadResult struct {
	Restored bool
	// Discarded holds the reason a cached snapshot was thrown away.
	Discarded error
	Pass      PassResult
}

// Tracker owns the ingestion pipeline. All entity mutation happens under
// passMu; readers only ever see the copies published after a pass.
type Tracker struct {
	source  ports.SegmentSource
	decoder ports.EventDecoder
	store   ports.SnapshotStore
	clock   ports.Clock
	opts    Options
	logger  *slog.Logger

	passMu     sync.Mutex
	ledger     *Ledger
	resolver   *OwnershipResolver
	aggregator *Aggregator
	reconciler *Reconciler

	viewMu   sync.RWMutex
	carriers []domain.Carrier
	segments []domain.Segment

	statusMu sync.Mutex
	statuses *StatusTracker

	notifier *Notifier
	requests chan struct{}
}

// NewTracker wires the pipeline. store may be nil to run without a cache.
func NewTracker(source ports.SegmentSource, decoder ports.EventDecoder, store ports.SnapshotStore, clock ports.Clock, opts Options) *Tracker {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	opts = opts.withDefaults()

	t := &Tracker{
		source:   source,
		decoder:  decoder,
		store:    store,
		clock:    clock,
		opts:     opts,
		logger:   opts.Logger,
		statuses: NewStatusTracker(),
		notifier: NewNotifier(),
		requests: make(chan struct{}, 1),
	}
	t.reset()
	return t
}

func (t *Tracker) reset() {
	t.ledger = NewLedger(t.source, t.decoder)
	t.resolver = NewOwnershipResolver(t.opts.OwnershipGrace)
	t.aggregator = NewAggregator()
	t.reconciler = NewReconciler()
}

// Load restores the cached snapshot when it is still valid and runs the
// validating pass. Any cache problem falls back to a cold scan.
func (t *Tracker) Load(ctx context.Context) (LoadResult, error) {
	var result LoadResult
	if t.store != nil {
		restored, err := t.restore(ctx)
		switch {
		case errors.Is(err, domain.ErrNoJournalRoot):
			return result, err
		case err != nil:
			t.discard(ctx, err)
			result.Discarded = err
		default:
			result.Restored = restored
		}
	}

	pass, err := t.Ingest(ctx)
	if err != nil {
		return result, err
	}
	if result.Restored && pass.truncated() {
		err := fmt.Errorf("validate restored cursors: %w", domain.ErrSegmentTruncated)
		t.discard(ctx, err)
		result.Restored = false
		result.Discarded = err
		if pass, err = t.Ingest(ctx); err != nil {
			return result, err
		}
	}
	result.Pass = pass
	return result, nil
}

func (t *Tracker) restore(ctx context.Context) (bool, error) {
	var snap Snapshot
	if err := t.store.Load(ctx, &snap); err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return false, fmt.Errorf("snapshot version %d, want %d: %w", snap.Version, SnapshotVersion, domain.ErrSnapshotInvalid)
	}
	if !slices.Equal(snap.Roots, t.source.Roots()) {
		return false, fmt.Errorf("snapshot roots differ: %w", domain.ErrSnapshotInvalid)
	}

	files, err := t.source.Scan(ctx)
	if err != nil {
		return false, fmt.Errorf("scan journal roots: %w", err)
	}

	t.passMu.Lock()
	defer t.passMu.Unlock()

	ledger := NewLedger(t.source, t.decoder)
	ledger.Restore(snap.Segments)
	if err := ledger.Validate(ctx, files); err != nil {
		return false, err
	}
	t.ledger = ledger
	t.resolver = NewOwnershipResolver(t.opts.OwnershipGrace)
	t.resolver.Restore(snap.Pending)
	t.aggregator = RestoreAggregator(snap.Aggregator)
	t.reconciler = NewReconciler()
	return true, nil
}

func (t *Tracker) discard(ctx context.Context, reason error) {
	t.logger.Warn("discarding cache, rescanning journals", "err", reason)
	if err := t.store.Delete(ctx); err != nil {
		t.logger.Warn("delete cache", "err", err)
	}
	t.passMu.Lock()
	t.reset()
	t.passMu.Unlock()
}

// Ingest runs one discover, parse and merge pass.
func (t *Tracker) Ingest(ctx context.Context) (PassResult, error) {
	t.passMu.Lock()
	defer t.passMu.Unlock()

	now := t.clock.Now()
	files, err := t.source.Scan(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("scan journal roots: %w", err)
	}

	result := PassResult{Segments: len(files)}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		seg, _ := t.ledger.Track(file)
		if seg.Skippable() {
			result.Skipped++
			continue
		}

		read, err := t.ledger.Read(ctx, seg)
		if err != nil {
			result.Failed = append(result.Failed, SegmentError{Segment: seg.Name, Err: err})
			t.logger.Warn("segment read failed", "segment", seg.Name, "err", err)
			continue
		}
		if err := t.ledger.Commit(ctx, seg, read, now); err != nil {
			t.logger.Warn("segment fingerprint failed", "segment", seg.Name, "err", err)
		}
		if read.Malformed > 0 {
			t.logger.Debug("skipped malformed lines", "segment", seg.Name, "count", read.Malformed)
		}

		claims := t.resolver.Observe(seg, read.Events)
		t.aggregator.Add(read.Events...)
		t.aggregator.AddClaims(claims...)

		result.Read++
		result.Events += len(read.Events)
		result.Malformed += read.Malformed
	}

	result.Abandoned = t.resolver.Expire(now, t.ledger.Segment)
	for _, path := range result.Abandoned {
		t.logger.Debug("segment owner unresolved", "segment", filepath.Base(path))
	}

	t.reconciler.Apply(t.aggregator.Incremental())
	if t.opts.CompactThreshold > 0 && t.aggregator.Len() > t.opts.CompactThreshold {
		result.Compacted = t.aggregator.Compact()
	}
	t.publish()
	return result, nil
}

// Rebuild reconciles every retained event into fresh entities.
func (t *Tracker) Rebuild(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.passMu.Lock()
	defer t.passMu.Unlock()

	t.aggregator.Incremental()
	t.reconciler = NewReconciler()
	t.reconciler.Apply(t.aggregator.Full())
	t.publish()
	return nil
}

func (t *Tracker) publish() {
	carriers := t.reconciler.Carriers()
	segments := t.ledger.Segments()

	t.viewMu.Lock()
	t.carriers = carriers
	t.segments = segments
	t.viewMu.Unlock()
}

// RequestIngest asks the running worker for a pass. Requests made while one
// is already pending collapse into it.
func (t *Tracker) RequestIngest() {
	select {
	case t.requests <- struct{}{}:
	default:
	}
}

func (t *Tracker) Subscribe() (<-chan StatusChange, func()) {
	return t.notifier.Subscribe()
}

// RecomputeStatuses evaluates the published carriers at now and publishes
// the transitions since the previous call.
func (t *Tracker) RecomputeStatuses(now time.Time) []StatusChange {
	t.viewMu.RLock()
	carriers := t.carriers
	t.viewMu.RUnlock()

	t.statusMu.Lock()
	changes := t.statuses.Recompute(carriers, now, t.opts.Cooldowns)
	t.statusMu.Unlock()

	t.notifier.Publish(changes...)
	return changes
}

func (t *Tracker) Snapshot() Snapshot {
	t.passMu.Lock()
	defer t.passMu.Unlock()

	return Snapshot{
		Version:    SnapshotVersion,
		Roots:      t.source.Roots(),
		Segments:   t.ledger.Segments(),
		Aggregator: t.aggregator.State(),
		Pending:    t.resolver.Pending(),
		SavedAt:    t.clock.Now(),
	}
}

func (t *Tracker) SaveCache(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.Save(ctx, t.Snapshot()); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

func (t *Tracker) ClearCache(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.Delete(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Run drives the pipeline until ctx is done: the ingestion worker runs in
// the calling goroutine, status recomputation and cache saves run beside it.
// triggers may be nil.
func (t *Tracker) Run(ctx context.Context, triggers <-chan string) error {
	var wg sync.WaitGroup
	saves := make(chan Snapshot, 1)

	if t.store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range saves {
				if err := t.store.Save(context.WithoutCancel(ctx), snap); err != nil {
					t.logger.Warn("save cache", "err", err)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		t.statusLoop(ctx)
	}()

	t.ingestLoop(ctx, triggers, saves)
	close(saves)
	wg.Wait()

	if err := t.SaveCache(context.WithoutCancel(ctx)); err != nil {
		t.logger.Warn("final cache save", "err", err)
	}
	t.notifier.Close()
	return nil
}

func (t *Tracker) ingestLoop(ctx context.Context, triggers <-chan string, saves chan<- Snapshot) {
	ticker := time.NewTicker(t.opts.IngestInterval)
	defer ticker.Stop()
	lastSave := t.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-t.requests:
		case path, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			t.logger.Debug("segment changed", "segment", filepath.Base(path))
		}

		for drained := false; !drained; {
			select {
			case <-t.requests:
			case _, ok := <-triggers:
				if !ok {
					triggers = nil
				}
			default:
				drained = true
			}
		}

		if _, err := t.Ingest(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error("ingestion pass failed", "err", err)
			continue
		}

		if t.store == nil {
			continue
		}
		if now := t.clock.Now(); now.Sub(lastSave) >= t.opts.SaveInterval {
			select {
			case saves <- t.Snapshot():
				lastSave = now
			default:
			}
		}
	}
}

func (t *Tracker) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(t.opts.StatusInterval)
	defer ticker.Stop()

	t.RecomputeStatuses(t.clock.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.RecomputeStatuses(t.clock.Now())
		}
	}
}
