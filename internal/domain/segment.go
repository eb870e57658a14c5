package domain

import "time"

type OwnerState int

const (
	OwnerPending OwnerState = iota
	OwnerResolved
	OwnerAmbiguous
	// OwnerAbandoned marks a segment whose grace window elapsed unresolved.
	OwnerAbandoned
)

func (s OwnerState) String() string {
	switch s {
	case OwnerPending:
		return "pending"
	case OwnerResolved:
		return "resolved"
	case OwnerAmbiguous:
		return "ambiguous"
	case OwnerAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Settled reports whether ownership resolution is finished for good.
func (s OwnerState) Settled() bool {
	return s == OwnerResolved || s == OwnerAbandoned
}

// Segment is the tracked state of one rotated journal file.
type Segment struct {
	Path      string
	Name      string
	CreatedAt time.Time
	Sequence  int

	Cursor    int64
	Lines     int
	Malformed int

	Active    bool
	LastEvent EventKind

	Identities []string
	Owner      string
	OwnerState OwnerState
	// Carriers lists carriers seen in stats events, in first-seen order.
	Carriers []CarrierID
	Claimed  int

	Fingerprint    string
	FingerprintLen int64
	LastReadAt     time.Time
}

// Skippable reports whether a pass can ignore the segment entirely.
func (s Segment) Skippable() bool {
	return !s.Active && s.OwnerState.Settled()
}

func (s Segment) Clone() Segment {
	out := s
	out.Identities = append([]string(nil), s.Identities...)
	out.Carriers = append([]CarrierID(nil), s.Carriers...)
	return out
}
