package application

import (
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
)

// SnapshotVersion changes whenever the persisted layout or the meaning of
// a persisted field changes.
const SnapshotVersion = 1

// Snapshot is the cache payload: cursors plus everything the aggregator
// retains. Reconciled carriers are never stored; they are rebuilt from the
// aggregator on restore.
type Snapshot struct {
	Version    int                  `cbor:"1,keyasint"`
	Roots      []string             `cbor:"2,keyasint"`
	Segments   []domain.Segment     `cbor:"3,keyasint"`
	Aggregator AggregatorState      `cbor:"4,keyasint"`
	Pending    map[string]time.Time `cbor:"5,keyasint,omitempty"`
	SavedAt    time.Time            `cbor:"6,keyasint"`
}
