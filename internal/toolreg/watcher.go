package toolreg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the registry when its backing file changes on disk, so
// edits made outside the REPL (or by another c9ai process) show up without a
// restart. Events are debounced; reload errors go to the errs channel and
// leave the previous in-memory state intact.
type Watcher struct {
	reg  *Registry
	errs chan error
}

func NewWatcher(reg *Registry) *Watcher {
	return &Watcher{reg: reg, errs: make(chan error, 4)}
}

// Errors reports non-fatal reload failures.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Start watches the registry file's directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	dir := filepath.Dir(w.reg.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	target := filepath.Base(w.reg.Path())

	go func() {
		defer func() {
			_ = fsw.Close()
			close(w.errs)
		}()

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				// Debounce editor write bursts.
				if timer == nil {
					timer = time.NewTimer(150 * time.Millisecond)
					timerC = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(150 * time.Millisecond)
					timerC = timer.C
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				select {
				case w.errs <- err:
				default:
				}
			case <-timerC:
				timerC = nil
				if err := w.reg.Reload(); err != nil {
					select {
					case w.errs <- err:
					default:
					}
				}
			}
		}
	}()
	return nil
}
