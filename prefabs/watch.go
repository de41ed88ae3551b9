package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reports prefab files changed on disk. Events carries the slash
// separated name relative to the watched directory, e.g. "discs.yaml" or
// "scripts/eject.tengo", so it can be handed straight back to Load.
type Watcher struct {
	watcher *fsnotify.Watcher
	roots   []string
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches DiskRoot and its scripts directory when they exist.
func NewWatcher() (*Watcher, error) {
	return NewWatcherFor(DiskRoot, filepath.Join(DiskRoot, "scripts"))
}

// NewWatcherFor watches the given directories. Directories that cannot be
// added are skipped as long as at least one succeeds.
func NewWatcherFor(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var (
		roots   []string
		lastErr error
	)
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			lastErr = err
			continue
		}
		roots = append(roots, filepath.Clean(dir))
	}
	if len(roots) == 0 && lastErr != nil {
		_ = w.Close()
		return nil, lastErr
	}

	watcher := &Watcher{
		watcher: w,
		roots:   roots,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpecFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- w.relative(event.Name):
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// relative maps an event path back to a prefab name. The shallowest matching
// root wins so scripts keep their scripts/ prefix.
func (w *Watcher) relative(path string) string {
	clean := filepath.Clean(path)
	base := ""
	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, clean); err == nil && !strings.HasPrefix(rel, "..") {
			if base == "" || len(root) < len(base) {
				base = root
			}
		}
	}
	if base == "" {
		return filepath.ToSlash(filepath.Base(clean))
	}
	rel, _ := filepath.Rel(base, clean)
	return filepath.ToSlash(rel)
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}
