package application

import (
	"sort"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

type streamKey struct {
	Kind    domain.EventKind
	Carrier domain.CarrierID
}

// Batch is what the aggregator hands to the reconciler, in arrival order.
type Batch struct {
	Events []domain.Event
	Claims []domain.OwnerClaim
}

func (b Batch) Empty() bool {
	return len(b.Events) == 0 && len(b.Claims) == 0
}

// Aggregator accumulates events in append-only per-kind, per-carrier streams
// and remembers how much of each stream was already delivered.
type Aggregator struct {
	streams         map[streamKey][]domain.Event
	delivered       map[streamKey]int
	claims          []domain.OwnerClaim
	claimsDelivered int
	nextSeq         uint64
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		streams:   make(map[streamKey][]domain.Event),
		delivered: make(map[streamKey]int),
		nextSeq:   1,
	}
}

// Add stamps each kept event with the next sequence number.
func (a *Aggregator) Add(events ...domain.Event) {
	for _, event := range events {
		if !event.Kind.Aggregated() {
			continue
		}
		event.Seq = a.nextSeq
		a.nextSeq++
		key := streamKey{Kind: event.Kind, Carrier: event.CarrierID}
		a.streams[key] = append(a.streams[key], event)
	}
}

func (a *Aggregator) AddClaims(claims ...domain.OwnerClaim) {
	for _, claim := range claims {
		claim.Seq = a.nextSeq
		a.nextSeq++
		a.claims = append(a.claims, claim)
	}
}

// Full returns every retained item. It does not move the watermark.
func (a *Aggregator) Full() Batch {
	var batch Batch
	for _, stream := range a.streams {
		batch.Events = append(batch.Events, stream...)
	}
	batch.Claims = append(batch.Claims, a.claims...)
	sortBySeq(batch.Events)
	return batch
}

// Incremental returns the items added since the previous call and marks them
// delivered.
func (a *Aggregator) Incremental() Batch {
	var batch Batch
	for key, stream := range a.streams {
		from := a.delivered[key]
		if from < len(stream) {
			batch.Events = append(batch.Events, stream[from:]...)
			a.delivered[key] = len(stream)
		}
	}
	if a.claimsDelivered < len(a.claims) {
		batch.Claims = append(batch.Claims, a.claims[a.claimsDelivered:]...)
		a.claimsDelivered = len(a.claims)
	}
	sortBySeq(batch.Events)
	return batch
}

func (a *Aggregator) Len() int {
	n := len(a.claims)
	for _, stream := range a.streams {
		n += len(stream)
	}
	return n
}

// Compact drops delivered items that can no longer influence reconciliation
// and returns how many were removed. Undelivered items are never touched.
func (a *Aggregator) Compact() int {
	removed := 0
	for key, stream := range a.streams {
		done := a.delivered[key]
		if done < 2 {
			continue
		}
		kept := compactStream(key.Kind, stream[:done])
		if len(kept) == done {
			continue
		}
		removed += done - len(kept)
		a.streams[key] = append(kept, stream[done:]...)
		a.delivered[key] = len(kept)
	}

	if a.claimsDelivered > 1 {
		kept := compactClaims(a.claims[:a.claimsDelivered])
		removed += a.claimsDelivered - len(kept)
		a.claims = append(kept, a.claims[a.claimsDelivered:]...)
		a.claimsDelivered = len(kept)
	}
	return removed
}

func compactStream(kind domain.EventKind, delivered []domain.Event) []domain.Event {
	switch kind {
	case domain.EventStatsSnapshot, domain.EventLocationReport, domain.EventDockingPermissionSet:
		return []domain.Event{pick(delivered, laterThan)}
	case domain.EventFuelDeposited:
		// An equally dated deposit never replaces the first one applied.
		return []domain.Event{pick(delivered, func(a, b domain.Event) bool {
			return a.Timestamp.After(b.Timestamp) || (a.Timestamp.Equal(b.Timestamp) && a.Seq < b.Seq)
		})}
	case domain.EventCarrierPurchased:
		return []domain.Event{pick(delivered, func(a, b domain.Event) bool { return laterThan(b, a) })}
	case domain.EventTradeOrderSet:
		return lastPerGroup(delivered, func(e domain.Event) string { return e.Trade.Commodity })
	case domain.EventCommanderLoaded:
		return lastPerGroup(delivered, func(e domain.Event) string { return e.Commander.FID })
	default:
		return delivered
	}
}

// laterThan orders events the way the reconciler applies them.
func laterThan(a, b domain.Event) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq > b.Seq
}

func pick(events []domain.Event, better func(a, b domain.Event) bool) domain.Event {
	best := events[0]
	for _, event := range events[1:] {
		if better(event, best) {
			best = event
		}
	}
	return best
}

func lastPerGroup(events []domain.Event, group func(domain.Event) string) []domain.Event {
	latest := make(map[string]domain.Event)
	for _, event := range events {
		g := group(event)
		if current, ok := latest[g]; !ok || laterThan(event, current) {
			latest[g] = event
		}
	}
	out := make([]domain.Event, 0, len(latest))
	for _, event := range latest {
		out = append(out, event)
	}
	sortBySeq(out)
	return out
}

func compactClaims(claims []domain.OwnerClaim) []domain.OwnerClaim {
	type claimKey struct {
		carrier domain.CarrierID
		segment string
	}
	latest := make(map[claimKey]domain.OwnerClaim)
	for _, claim := range claims {
		key := claimKey{carrier: claim.CarrierID, segment: claim.Segment}
		if current, ok := latest[key]; !ok || claim.Seq > current.Seq {
			latest[key] = claim
		}
	}
	out := make([]domain.OwnerClaim, 0, len(latest))
	for _, claim := range latest {
		if claim.FID == "" {
			continue
		}
		out = append(out, claim)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func sortBySeq(events []domain.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
}

// AggregatorState is the persisted form of an aggregator. Watermarks are not
// kept: a restored aggregator delivers everything again.
type AggregatorState struct {
	Events  []domain.Event      `cbor:"1,keyasint"`
	Claims  []domain.OwnerClaim `cbor:"2,keyasint"`
	NextSeq uint64              `cbor:"3,keyasint"`
}

func (a *Aggregator) State() AggregatorState {
	full := a.Full()
	return AggregatorState{Events: full.Events, Claims: full.Claims, NextSeq: a.nextSeq}
}

func RestoreAggregator(state AggregatorState) *Aggregator {
	a := NewAggregator()
	for _, event := range state.Events {
		key := streamKey{Kind: event.Kind, Carrier: event.CarrierID}
		a.streams[key] = append(a.streams[key], event)
		if event.Seq >= a.nextSeq {
			a.nextSeq = event.Seq + 1
		}
	}
	a.claims = append(a.claims, state.Claims...)
	for _, claim := range state.Claims {
		if claim.Seq >= a.nextSeq {
			a.nextSeq = claim.Seq + 1
		}
	}
	if state.NextSeq > a.nextSeq {
		a.nextSeq = state.NextSeq
	}
	return a
}
