package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Apply loads the registry file at path and registers it with store. On
// failure the store keeps serving its previous snapshot.
func Apply(store *registry.Store, path string) (*registry.Snapshot, error) {
	reg, err := Load(path)
	if err != nil {
		return nil, err
	}
	snap, err := store.Register(reg.Clients, reg.ApiResources, reg.IdentityResources)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Watcher reloads a registry file into a Store whenever it changes.
type Watcher struct {
	Path     string
	Store    *registry.Store
	Logger   *slog.Logger
	Debounce time.Duration
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, store *registry.Store, logger *slog.Logger) *Watcher {
	return &Watcher{Path: path, Store: store, Logger: logger, Debounce: DefaultDebounce}
}

// Run watches until ctx is done. The parent directory is watched rather than
// the file so that atomic replace-by-rename saves are seen.
func (w *Watcher) Run(ctx context.Context) error {
	path, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve registry path: %w", err)
	}
	dir := filepath.Dir(path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create registry watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	w.Logger.Info("watching registry file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("registry watcher error", "error", err)
		case <-timer.C:
			w.reload(path)
		}
	}
}

func (w *Watcher) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		// Mid-rename; the create event that follows triggers another reload.
		w.Logger.Debug("registry file not present", "path", path)
		return
	}
	snap, err := Apply(w.Store, path)
	if err != nil {
		w.Logger.Warn("registry reload rejected, keeping current snapshot", "error", err)
		return
	}
	w.Logger.Info("registry reloaded", "path", path, "generation", snap.Generation())
}
