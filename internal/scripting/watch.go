package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
)

// debounce drops repeated events for one file inside this window; editors
// typically write a file several times per save.
const debounce = 100 * time.Millisecond

// Change asks for Path to be reloaded into Scope.
type Change struct {
	Scope string
	Path  string
}

// Watcher turns edits under a script directory into Changes. Boss scripts
// map to the scope of the boss that names them; any file under ai/ reloads
// the whole AI scope.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	bosses  map[string]string
	aiDir   string
	sink    func(Change)
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches dir/bosses and, when present, dir/ai. sink receives
// every change from the goroutine running Start.
//
// Precondition: reg and sink must be non-nil.
// Postcondition: returns an error when dir/bosses cannot be watched.
func NewWatcher(dir string, reg *boss.Registry, sink func(Change), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scripting.NewWatcher: %w", err)
	}
	w := &Watcher{
		watcher: fw,
		logger:  logger.Named("script-watcher"),
		bosses:  make(map[string]string),
		sink:    sink,
		closeCh: make(chan struct{}),
	}

	bossDir := filepath.Join(dir, "bosses")
	if err := fw.Add(bossDir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("scripting.NewWatcher: %w", err)
	}
	for _, d := range reg.All() {
		if d.Script != "" {
			w.bosses[filepath.Clean(filepath.Join(bossDir, d.Script))] = d.Type().String()
		}
	}

	aiDir := filepath.Join(dir, "ai")
	if info, err := os.Stat(aiDir); err == nil && info.IsDir() {
		if err := fw.Add(aiDir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("scripting.NewWatcher: %w", err)
		}
		w.aiDir = filepath.Clean(aiDir)
	}
	return w, nil
}

// route maps a changed file to the change it causes.
func (w *Watcher) route(name string) (Change, bool) {
	if !strings.EqualFold(filepath.Ext(name), ".lua") {
		return Change{}, false
	}
	name = filepath.Clean(name)
	if scope, ok := w.bosses[name]; ok {
		return Change{Scope: scope, Path: name}, true
	}
	if w.aiDir != "" && filepath.Dir(name) == w.aiDir {
		return Change{Scope: "ai", Path: w.aiDir}, true
	}
	return Change{}, false
}

// Start forwards changes to the sink until Stop is called.
func (w *Watcher) Start() error {
	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c, ok := w.route(ev.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, seen := last[ev.Name]; seen && now.Sub(t) < debounce {
				continue
			}
			last[ev.Name] = now
			w.logger.Debug("script changed", zap.String("scope", c.Scope), zap.String("path", ev.Name))
			w.sink(c)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.closeCh:
			return nil
		}
	}
}

// Stop ends Start and releases the underlying watcher. Calling Stop is
// idempotent.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.closeCh)
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("closing watcher", zap.Error(err))
		}
	})
}
