package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

// Ledger keeps the records of a long running watch session.
type Ledger struct {
	mu      sync.Mutex
	records []dto.DocumentRecord
	seen    map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{seen: map[string]bool{}}
}

// Claim marks path as taken; it returns false when it already was.
func (l *Ledger) Claim(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[path] {
		return false
	}
	l.seen[path] = true
	return true
}

func (l *Ledger) Add(rec dto.DocumentRecord) []dto.DocumentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return l.snapshot()
}

// Records returns a copy of the records so far.
func (l *Ledger) Records() []dto.DocumentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Ledger) snapshot() []dto.DocumentRecord {
	out := make([]dto.DocumentRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ErrOverlappingFolders is returned when the revenue and expense folders are
// the same or one contains the other.
var ErrOverlappingFolders = errors.New("revenue and expense folders overlap")

type watchRoot struct {
	dir      string
	category dto.Category
}

// FolderWatcher reconciles PDFs dropped into the revenue and expense folders
// or any of their subfolders.
type FolderWatcher struct {
	svc      *ReconcileService
	roots    []watchRoot
	ledger   *Ledger
	onUpdate func([]dto.DocumentRecord)
	log      zerolog.Logger
}

// NewFolderWatcher builds a watcher. onUpdate receives the full ledger after
// each processed file and runs on the watcher goroutine.
func NewFolderWatcher(svc *ReconcileService, revenueDir, expenseDir string, onUpdate func([]dto.DocumentRecord), log zerolog.Logger) (*FolderWatcher, error) {
	var roots []watchRoot
	for _, r := range []watchRoot{{revenueDir, dto.CategoryRevenue}, {expenseDir, dto.CategoryExpense}} {
		if r.dir == "" {
			continue
		}
		abs, err := filepath.Abs(r.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", r.dir, err)
		}
		for _, other := range roots {
			if within(other.dir, abs) || within(abs, other.dir) {
				return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingFolders, other.dir, abs)
			}
		}
		roots = append(roots, watchRoot{dir: abs, category: r.category})
	}
	return &FolderWatcher{
		svc:      svc,
		roots:    roots,
		ledger:   NewLedger(),
		onUpdate: onUpdate,
		log:      log.With().Str("component", "watcher").Logger(),
	}, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *FolderWatcher) Ledger() *Ledger {
	return w.ledger
}

func (w *FolderWatcher) categoryOf(path string) (dto.Category, bool) {
	for _, r := range w.roots {
		if within(r.dir, path) {
			return r.category, true
		}
	}
	return "", false
}

// Run processes the PDFs already present, then every new one, until ctx is
// done.
func (w *FolderWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, r := range w.roots {
		if err := addTree(watcher, r.dir); err != nil {
			return err
		}
	}

	for _, r := range w.roots {
		files, err := DiscoverPDFs(r.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			w.handle(ctx, f, r.category)
		}
	}
	w.log.Info().Int("dirs", len(w.roots)).Msg("watching (debounced)")

	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addSubfolder(watcher, ev.Name, pending)
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsPDF(ev.Name) {
				pending[ev.Name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) > debounceStable {
					delete(pending, path)
					if category, ok := w.categoryOf(path); ok {
						w.handle(ctx, path, category)
					}
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// addSubfolder watches a folder created during the session and queues the
// PDFs that landed in it before the watch was in place.
func (w *FolderWatcher) addSubfolder(watcher *fsnotify.Watcher, dir string, pending map[string]time.Time) {
	if err := addTree(watcher, dir); err != nil {
		w.log.Warn().Err(err).Str("dir", dir).Msg("failed to watch subfolder")
		return
	}
	files, err := DiscoverPDFs(dir)
	if err != nil {
		w.log.Warn().Err(err).Str("dir", dir).Msg("failed to list subfolder")
		return
	}
	now := time.Now()
	for _, f := range files {
		pending[f] = now
	}
}

func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *FolderWatcher) handle(ctx context.Context, path string, category dto.Category) {
	if !w.ledger.Claim(path) {
		return
	}
	rec := w.svc.ProcessFile(ctx, path, category)
	records := w.ledger.Add(rec)
	if w.onUpdate != nil {
		w.onUpdate(records)
	}
}
