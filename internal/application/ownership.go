package application

import (
	"slices"
	"sort"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

const DefaultOwnershipGrace = time.Hour

// OwnershipResolver attributes segments to the commander announced in them.
// Unresolved segments wait in a queue keyed by their resolution deadline.
type OwnershipResolver struct {
	grace     time.Duration
	deadlines map[string]time.Time
}

func NewOwnershipResolver(grace time.Duration) *OwnershipResolver {
	if grace <= 0 {
		grace = DefaultOwnershipGrace
	}
	return &OwnershipResolver{grace: grace, deadlines: make(map[string]time.Time)}
}

// Observe folds newly read events of seg into its ownership state and returns
// the claims or retractions the change implies.
func (r *OwnershipResolver) Observe(seg *domain.Segment, events []domain.Event) []domain.OwnerClaim {
	for _, event := range events {
		switch event.Kind {
		case domain.EventIdentityAnnounced:
			if event.Identity != nil && event.Identity.FID != "" && !slices.Contains(seg.Identities, event.Identity.FID) {
				seg.Identities = append(seg.Identities, event.Identity.FID)
			}
		case domain.EventStatsSnapshot:
			if !slices.Contains(seg.Carriers, event.CarrierID) {
				seg.Carriers = append(seg.Carriers, event.CarrierID)
			}
		}
	}

	if seg.OwnerState == domain.OwnerAbandoned {
		return nil
	}

	wasResolved := seg.OwnerState == domain.OwnerResolved
	switch len(seg.Identities) {
	case 0:
		seg.OwnerState = domain.OwnerPending
		seg.Owner = ""
	case 1:
		seg.OwnerState = domain.OwnerResolved
		seg.Owner = seg.Identities[0]
	default:
		seg.OwnerState = domain.OwnerAmbiguous
		seg.Owner = ""
	}

	var claims []domain.OwnerClaim
	switch {
	case seg.OwnerState == domain.OwnerResolved:
		delete(r.deadlines, seg.Path)
		for _, id := range seg.Carriers[seg.Claimed:] {
			claims = append(claims, domain.OwnerClaim{CarrierID: id, Segment: seg.Path, SegmentTime: seg.CreatedAt, FID: seg.Owner})
		}
		seg.Claimed = len(seg.Carriers)
	case wasResolved:
		for _, id := range seg.Carriers[:seg.Claimed] {
			claims = append(claims, domain.OwnerClaim{CarrierID: id, Segment: seg.Path, SegmentTime: seg.CreatedAt})
		}
		seg.Claimed = 0
		r.enqueue(seg)
	default:
		r.enqueue(seg)
	}
	return claims
}

func (r *OwnershipResolver) enqueue(seg *domain.Segment) {
	if _, ok := r.deadlines[seg.Path]; !ok {
		r.deadlines[seg.Path] = seg.CreatedAt.Add(r.grace)
	}
}

// Expire abandons every queued segment whose deadline has passed and returns
// their paths in deadline order.
func (r *OwnershipResolver) Expire(now time.Time, lookup func(path string) (*domain.Segment, bool)) []string {
	var expired []string
	for path, deadline := range r.deadlines {
		if now.Before(deadline) {
			continue
		}
		expired = append(expired, path)
	}
	sort.Slice(expired, func(i, j int) bool {
		a, b := r.deadlines[expired[i]], r.deadlines[expired[j]]
		if !a.Equal(b) {
			return a.Before(b)
		}
		return expired[i] < expired[j]
	})
	for _, path := range expired {
		delete(r.deadlines, path)
		if seg, ok := lookup(path); ok && !seg.OwnerState.Settled() {
			seg.OwnerState = domain.OwnerAbandoned
		}
	}
	return expired
}

func (r *OwnershipResolver) Pending() map[string]time.Time {
	out := make(map[string]time.Time, len(r.deadlines))
	for path, deadline := range r.deadlines {
		out[path] = deadline
	}
	return out
}

func (r *OwnershipResolver) Restore(deadlines map[string]time.Time) {
	r.deadlines = make(map[string]time.Time, len(deadlines))
	for path, deadline := range deadlines {
		r.deadlines[path] = deadline
	}
}
