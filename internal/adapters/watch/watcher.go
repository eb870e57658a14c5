package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher reports journal segments that changed on disk. Bursts of writes to
// the same file collapse into one change after the debounce window.
type Watcher struct {
	Changes <-chan string

	roots    []string
	prefix   string
	debounce time.Duration
	logger   *slog.Logger

	changes chan string
	done    chan struct{}
	watcher *fsnotify.Watcher
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWatcher(roots []string, prefix string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	ch := make(chan string, 16)
	w := &Watcher{
		Changes:  ch,
		roots:    roots,
		prefix:   prefix,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches every root that can be watched. It fails only when none can.
func (w *Watcher) Start() error {
	var errs []error
	watched := 0
	for _, root := range w.roots {
		if err := w.watcher.Add(root); err != nil {
			errs = append(errs, fmt.Errorf("watch %q: %w", root, err))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = w.watcher.Close()
		close(w.done)
		return errors.Join(append([]error{errors.New("no journal root could be watched")}, errs...)...)
	}
	for _, err := range errs {
		w.logger.Warn("journal root not watched", "err", err)
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	_ = w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !w.isSegment(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, at := range pending {
				if now.Sub(at) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("file watcher error", "err", err)
		}
	}
}

func (w *Watcher) isSegment(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, w.prefix+".") && strings.HasSuffix(base, ".log")
}

// emit never blocks: a full channel already guarantees a pending pass.
func (w *Watcher) emit(file string) {
	select {
	case w.changes <- file:
	default:
	}
}
