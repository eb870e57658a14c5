package application

import (
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

// Evaluation is the time-derived view of one carrier.
type Evaluation struct {
	Status domain.Status
	// Remaining is the time left in the current status; zero when idle.
	Remaining   time.Duration
	Departure   time.Time
	Current     domain.Location
	Destination *domain.Location
}

// Evaluate derives the status of c at now. It never mutates c.
func Evaluate(c domain.Carrier, now time.Time, cooldowns domain.Cooldowns) Evaluation {
	fallback := domain.Location{System: c.SpawnLocation}
	if c.Location != nil {
		fallback = *c.Location
	}

	if len(c.Jumps) == 0 {
		if standaloneCancel(c) && now.Sub(c.LastCancel) < cooldowns.Cancel {
			return Evaluation{Status: domain.StatusCoolDownCancel, Remaining: cooldowns.Cancel - now.Sub(c.LastCancel), Current: fallback}
		}
		return Evaluation{Status: domain.StatusIdle, Current: fallback}
	}

	latest := c.Jumps[0]
	since := now.Sub(latest.Departure)
	eval := Evaluation{Departure: latest.Departure, Current: latest.Destination}

	switch {
	case since < 0:
		previous := domain.Location{System: c.SpawnLocation}
		if len(c.Jumps) > 1 {
			previous = c.Jumps[1].Destination
		}
		if c.Location != nil && c.Location.System != previous.System &&
			(len(c.Jumps) == 1 || c.Location.At.After(c.Jumps[1].Departure)) {
			previous = *c.Location
		}
		destination := latest.Destination
		eval.Status = domain.StatusJumping
		eval.Remaining = -since
		eval.Current = previous
		eval.Destination = &destination
	case since < cooldowns.Jump:
		eval.Status = domain.StatusCoolDown
		eval.Remaining = cooldowns.Jump - since
	case standaloneCancel(c) && now.Sub(c.LastCancel) < cooldowns.Cancel:
		eval.Status = domain.StatusCoolDownCancel
		eval.Remaining = cooldowns.Cancel - now.Sub(c.LastCancel)
	default:
		eval.Status = domain.StatusIdle
		if c.Location != nil && c.Location.System != latest.Destination.System && c.Location.At.After(latest.Departure) {
			eval.Current = *c.Location
		}
	}
	return eval
}

// standaloneCancel reports whether the latest cancellation is newer than
// every retained jump request.
func standaloneCancel(c domain.Carrier) bool {
	if c.LastCancel.IsZero() {
		return false
	}
	return len(c.Jumps) == 0 || c.LastCancel.After(c.Jumps[0].RequestedAt)
}

type StatusChange struct {
	CarrierID domain.CarrierID
	Callsign  string
	Name      string
	From      domain.Status
	To        domain.Status
	At        time.Time
}

// StatusTracker remembers the last observed status per carrier so every
// transition is reported exactly once. Unseen carriers start idle.
type StatusTracker struct {
	last map[domain.CarrierID]domain.Status
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{last: make(map[domain.CarrierID]domain.Status)}
}

func (t *StatusTracker) Observe(c domain.Carrier, status domain.Status, at time.Time) (StatusChange, bool) {
	previous, ok := t.last[c.ID]
	if !ok {
		previous = domain.StatusIdle
	}
	t.last[c.ID] = status
	if previous == status {
		return StatusChange{}, false
	}
	return StatusChange{
		CarrierID: c.ID,
		Callsign:  c.Callsign,
		Name:      c.Name,
		From:      previous,
		To:        status,
		At:        at,
	}, true
}

// Recompute evaluates every carrier and returns the transitions in the
// order the carriers were given.
func (t *StatusTracker) Recompute(carriers []domain.Carrier, now time.Time, cooldowns domain.Cooldowns) []StatusChange {
	var changes []StatusChange
	for _, c := range carriers {
		if change, ok := t.Observe(c, Evaluate(c, now, cooldowns).Status, now); ok {
			changes = append(changes, change)
		}
	}
	return changes
}
