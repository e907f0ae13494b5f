package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the directory must be quiet before a batch is staged
const DefaultDebounce = 500 * time.Millisecond

// BatchFunc receives the files that appeared in the drop directory
type BatchFunc func(ctx context.Context, paths []string)

// DropDir stages files as they are dropped into a directory.
// Bursts of events are collapsed into one batch once the directory settles.
type DropDir struct {
	dir      string
	debounce time.Duration
	onBatch  BatchFunc
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	flush   chan struct{}
}

// New starts watching dir. Events that happen after New returns are never
// missed, so callers may write into dir before Run is called.
func New(dir string, debounce time.Duration, onBatch BatchFunc) (*DropDir, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open drop directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(abs); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	return &DropDir{
		dir:      abs,
		debounce: debounce,
		onBatch:  onBatch,
		watcher:  w,
		pending:  make(map[string]struct{}),
		flush:    make(chan struct{}, 1),
	}, nil
}

// Dir returns the absolute path being watched
func (d *DropDir) Dir() string {
	return d.dir
}

// Close stops watching without running. Run closes the watcher itself.
func (d *DropDir) Close() error {
	return d.watcher.Close()
}

// Existing returns the regular files already present in the directory
func (d *DropDir) Existing() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if ignored(e.Name()) || !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(d.dir, e.Name()))
	}
	return paths, nil
}

// Run processes events until ctx is done. Files still waiting for the
// debounce when ctx ends are dropped.
func (d *DropDir) Run(ctx context.Context) error {
	defer d.watcher.Close()
	defer d.stopTimer()

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if ignored(filepath.Base(event.Name)) {
				continue
			}
			d.queue(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("dir", d.dir).Msg("watcher error")

		case <-d.flush:
			if paths := d.drain(); len(paths) > 0 {
				log.Info().Int("files", len(paths)).Str("dir", d.dir).Msg("staging dropped files")
				d.onBatch(ctx, paths)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (d *DropDir) queue(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, func() {
		select {
		case d.flush <- struct{}{}:
		default:
		}
	})
}

// drain returns the queued paths that are regular files, sorted
func (d *DropDir) drain() []string {
	d.mu.Lock()
	queued := d.pending
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	paths := make([]string, 0, len(queued))
	for p := range queued {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (d *DropDir) stopTimer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// ignored filters hidden, editor backup and partial download files
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "~") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".crdownload")
}
