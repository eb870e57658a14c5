package ports

import "context"

// SnapshotStore persists one opaque cache value. Load returns
// domain.ErrSnapshotNotFound when nothing was saved yet.
type SnapshotStore interface {
	Load(ctx context.Context, v any) error
	Save(ctx context.Context, v any) error
	Delete(ctx context.Context) error
}
