package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"iml-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const reloadDebounce = 200 * time.Millisecond

// storeWatcher signals on C when another process writes the workspace
// database. Bursts of writes collapse into one signal.
type storeWatcher struct {
	C <-chan struct{}

	w      *fsnotify.Watcher
	cancel context.CancelFunc
	once   sync.Once
}

type storeChangedMsg struct{}

func watchStore(ctx context.Context, s store.Store, log logrus.FieldLogger) (*storeWatcher, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// SQLite writes land in the -wal file, so watch the directory.
	if err := fw.Add(s.Dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", s.Dir, err)
	}

	ch := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(ctx)
	sw := &storeWatcher{C: ch, w: fw, cancel: cancel}
	dbName := filepath.Base(s.Path())

	go func() {
		var timer *time.Timer
		fire := func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !strings.HasPrefix(filepath.Base(ev.Name), dbName) {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(reloadDebounce, fire)
				} else {
					timer.Reset(reloadDebounce)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.WithError(err).Debug("store watcher")
			}
		}
	}()
	return sw, nil
}

func (sw *storeWatcher) Close() {
	sw.once.Do(func() {
		sw.cancel()
		_ = sw.w.Close()
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
