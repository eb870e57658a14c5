package application

import (
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

type jumpKey struct {
	kind    domain.EventKind
	at      int64
	address int64
	system  string
}

// jumpScanner pairs each cancellation with the request immediately before
// it. The open flag survives between batches, so a cancellation read in a
// later pass still removes a request folded in an earlier one.
type jumpScanner struct {
	history    []domain.Jump
	open       bool
	lastCancel time.Time
	seen       map[jumpKey]struct{}
}

func newJumpScanner() *jumpScanner {
	return &jumpScanner{seen: make(map[jumpKey]struct{})}
}

// fold applies one request or cancellation and reports whether it was new.
func (s *jumpScanner) fold(event domain.Event) bool {
	key := jumpKey{kind: event.Kind, at: event.Timestamp.UnixNano()}
	if event.Jump != nil {
		key.address = event.Jump.SystemAddress
		key.system = event.Jump.System
	}
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}

	switch event.Kind {
	case domain.EventJumpRequested:
		if event.Jump == nil {
			return false
		}
		s.history = append(s.history, domain.Jump{
			RequestedAt: event.Timestamp,
			Departure:   event.Jump.Departure,
			Destination: domain.Location{
				System:        event.Jump.System,
				SystemAddress: event.Jump.SystemAddress,
				Body:          event.Jump.Body,
				BodyID:        event.Jump.BodyID,
				At:            event.Jump.Departure,
			},
		})
		s.open = true
	case domain.EventJumpCancelled:
		if s.open && len(s.history) > 0 {
			s.history = s.history[:len(s.history)-1]
		}
		s.open = false
		if event.Timestamp.After(s.lastCancel) {
			s.lastCancel = event.Timestamp
		}
	default:
		return false
	}
	return true
}

// retained returns the surviving requests, most recent first.
func (s *jumpScanner) retained() []domain.Jump {
	out := make([]domain.Jump, len(s.history))
	for i, jump := range s.history {
		out[len(s.history)-1-i] = jump
	}
	return out
}
