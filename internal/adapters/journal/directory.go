package journal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
	"github.com/zeebo/blake3"
)

const (
	DefaultPrefix = "Journal"

	nameTimeLayout = "2006-01-02T150405"
)

// Directory discovers rotated journal segments across ordered root
// directories and serves tail reads from them.
type Directory struct {
	roots    []string
	pattern  *regexp.Regexp
	location *time.Location
}

var _ ports.SegmentSource = (*Directory)(nil)

type Option func(*Directory)

// WithLocation sets the zone used to interpret file name timestamps.
func WithLocation(loc *time.Location) Option {
	return func(d *Directory) {
		if loc != nil {
			d.location = loc
		}
	}
}

func NewDirectory(roots []string, prefix string, opts ...Option) *Directory {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(root))
	}
	d := &Directory{
		roots:    cleaned,
		pattern:  regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\.(\d{4}-\d{2}-\d{2}T\d{6})\.(\d{2})\.log$`),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) Roots() []string {
	return append([]string(nil), d.roots...)
}

func (d *Directory) Scan(ctx context.Context) ([]ports.SegmentFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		files    []ports.SegmentFile
		readable int
		errs     []error
	)
	for _, root := range d.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("read journal root %q: %w", root, err))
			continue
		}
		readable++
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			file, ok := d.parseName(root, entry.Name())
			if !ok {
				continue
			}
			if info, err := entry.Info(); err == nil {
				file.Size = info.Size()
			}
			files = append(files, file)
		}
	}
	if readable == 0 {
		return nil, errors.Join(append([]error{domain.ErrNoJournalRoot}, errs...)...)
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.Path < b.Path
	})
	return files, nil
}

func (d *Directory) parseName(root, name string) (ports.SegmentFile, bool) {
	match := d.pattern.FindStringSubmatch(name)
	if match == nil {
		return ports.SegmentFile{}, false
	}
	createdAt, err := time.ParseInLocation(nameTimeLayout, match[1], d.location)
	if err != nil {
		return ports.SegmentFile{}, false
	}
	sequence, err := strconv.Atoi(match[2])
	if err != nil {
		return ports.SegmentFile{}, false
	}
	return ports.SegmentFile{
		Path:      filepath.Join(root, name),
		Name:      name,
		Root:      root,
		CreatedAt: createdAt,
		Sequence:  sequence,
	}, true
}

func (d *Directory) ReadFrom(ctx context.Context, path string, offset int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat segment %q: %w", path, err)
	}
	if info.Size() < offset {
		return nil, fmt.Errorf("segment %q has %d bytes, cursor at %d: %w", path, info.Size(), offset, domain.ErrSegmentTruncated)
	}
	if info.Size() == offset {
		return nil, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek segment %q: %w", path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read segment %q: %w", path, err)
	}
	return data, nil
}

// Fingerprint hashes up to n leading bytes. A file holding fewer than n
// bytes reports domain.ErrSegmentTruncated.
func (d *Directory) Fingerprint(ctx context.Context, path string, n int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open segment %q: %w", path, err)
	}
	defer f.Close()

	hasher := blake3.New()
	copied, err := io.Copy(hasher, io.LimitReader(f, n))
	if err != nil {
		return "", fmt.Errorf("fingerprint segment %q: %w", path, err)
	}
	if copied < n {
		return "", fmt.Errorf("segment %q has %d of %d fingerprinted bytes: %w", path, copied, n, domain.ErrSegmentTruncated)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FingerprintBytes hashes data the same way Fingerprint hashes a file prefix.
func FingerprintBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
