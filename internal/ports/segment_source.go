package ports

import (
	"context"
	"time"
)

// SegmentFile is a discovered journal segment. CreatedAt and Sequence come
// from the file name, never from file metadata.
type SegmentFile struct {
	Path      string
	Name      string
	Root      string
	CreatedAt time.Time
	Sequence  int
	Size      int64
}

type SegmentSource interface {
	// Scan lists segments across every root ordered by embedded timestamp.
	Scan(ctx context.Context) ([]SegmentFile, error)
	// ReadFrom returns the bytes stored after offset.
	ReadFrom(ctx context.Context, path string, offset int64) ([]byte, error)
	// Fingerprint hashes the first n bytes of the segment.
	Fingerprint(ctx context.Context, path string, n int64) (string, error)
	Roots() []string
}
