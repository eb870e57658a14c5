package application

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
)

// MaxFingerprintLen bounds the prefix hashed to recognise a segment.
const MaxFingerprintLen int64 = 4096

// Ledger tracks every discovered segment and its read cursor.
type Ledger struct {
	source   ports.SegmentSource
	decoder  ports.EventDecoder
	segments map[string]*domain.Segment
}

type segmentRead struct {
	Events    []domain.Event
	Consumed  int64
	Lines     int
	Malformed int
	Last      domain.EventKind
}

func NewLedger(source ports.SegmentSource, decoder ports.EventDecoder) *Ledger {
	return &Ledger{
		source:   source,
		decoder:  decoder,
		segments: make(map[string]*domain.Segment),
	}
}

// Track returns the ledger entry for file, creating it on first discovery.
func (l *Ledger) Track(file ports.SegmentFile) (*domain.Segment, bool) {
	if seg, ok := l.segments[file.Path]; ok {
		return seg, false
	}
	seg := &domain.Segment{
		Path:       file.Path,
		Name:       file.Name,
		CreatedAt:  file.CreatedAt,
		Sequence:   file.Sequence,
		Active:     true,
		OwnerState: domain.OwnerPending,
	}
	l.segments[file.Path] = seg
	return seg, true
}

func (l *Ledger) Segment(path string) (*domain.Segment, bool) {
	seg, ok := l.segments[path]
	return seg, ok
}

// Read parses the bytes past the segment cursor without moving it.
func (l *Ledger) Read(ctx context.Context, seg *domain.Segment) (segmentRead, error) {
	data, err := l.source.ReadFrom(ctx, seg.Path, seg.Cursor)
	if err != nil {
		return segmentRead{}, err
	}
	return parseLines(data, l.decoder), nil
}

func (l *Ledger) Commit(ctx context.Context, seg *domain.Segment, read segmentRead, now time.Time) error {
	seg.Cursor += read.Consumed
	seg.Lines += read.Lines
	seg.Malformed += read.Malformed
	if read.Last != "" {
		seg.LastEvent = read.Last
		seg.Active = read.Last != domain.EventSessionTerminated
	}
	seg.LastReadAt = now

	want := min(seg.Cursor, MaxFingerprintLen)
	if want <= seg.FingerprintLen {
		return nil
	}
	sum, err := l.source.Fingerprint(ctx, seg.Path, want)
	if err != nil {
		return fmt.Errorf("fingerprint segment: %w", err)
	}
	seg.Fingerprint = sum
	seg.FingerprintLen = want
	return nil
}

// Validate checks restored entries against the files currently on disk.
func (l *Ledger) Validate(ctx context.Context, files []ports.SegmentFile) error {
	sizes := make(map[string]int64, len(files))
	for _, file := range files {
		sizes[file.Path] = file.Size
	}
	for _, seg := range l.segments {
		size, ok := sizes[seg.Path]
		if !ok {
			return fmt.Errorf("segment %q no longer listed: %w", seg.Name, domain.ErrSnapshotInvalid)
		}
		if size < seg.Cursor {
			return fmt.Errorf("segment %q: %w", seg.Name, domain.ErrSegmentTruncated)
		}
		if seg.FingerprintLen == 0 {
			continue
		}
		sum, err := l.source.Fingerprint(ctx, seg.Path, seg.FingerprintLen)
		if err != nil {
			return fmt.Errorf("segment %q: %w", seg.Name, err)
		}
		if sum != seg.Fingerprint {
			return fmt.Errorf("segment %q content changed: %w", seg.Name, domain.ErrSnapshotInvalid)
		}
	}
	return nil
}

// Segments returns copies ordered the same way discovery orders files.
func (l *Ledger) Segments() []domain.Segment {
	out := make([]domain.Segment, 0, len(l.segments))
	for _, seg := range l.segments {
		out = append(out, seg.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (l *Ledger) Restore(segments []domain.Segment) {
	l.segments = make(map[string]*domain.Segment, len(segments))
	for _, seg := range segments {
		restored := seg.Clone()
		l.segments[seg.Path] = &restored
	}
}

// parseLines decodes newline terminated lines. A trailing fragment is only
// consumed when it already decodes; otherwise it is left for the next pass.
func parseLines(data []byte, decoder ports.EventDecoder) segmentRead {
	var read segmentRead
	offset := 0
	for offset < len(data) {
		idx := bytes.IndexByte(data[offset:], '\n')
		if idx < 0 {
			line := data[offset:]
			if len(bytes.TrimSpace(line)) == 0 {
				break
			}
			event, err := decoder.Decode(line)
			if err != nil {
				break
			}
			read.Lines++
			read.Events = append(read.Events, event)
			read.Last = event.Kind
			read.Consumed = int64(len(data))
			break
		}

		line := data[offset : offset+idx]
		offset += idx + 1
		read.Consumed = int64(offset)
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		read.Lines++
		event, err := decoder.Decode(line)
		if err != nil {
			read.Malformed++
			continue
		}
		read.Events = append(read.Events, event)
		read.Last = event.Kind
	}
	return read
}
