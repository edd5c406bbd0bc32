package broadcast

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/leadgrid-dev/leadgrid/internal/credstore"
)

// FileWatcher observes the shared logout-signal file with fsnotify. It is
// the same-machine analog of a storage change event: every process watching
// the state directory sees the write, including the writer itself, so
// receivers must filter out their own markers.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan Signal
}

// NewFileWatcher watches the logout-signal file inside dir. The directory
// is created if missing so the watch can be established before first login.
func NewFileWatcher(dir string) (*FileWatcher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch state directory: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    filepath.Join(dir, credstore.SignalFileName),
		events:  make(chan Signal, 8),
	}
	go fw.loop()
	return fw, nil
}

func (fw *FileWatcher) loop() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(fw.path)
			if err != nil {
				continue
			}
			// Drop rather than block if the receiver is behind; a missed
			// signal is recovered by the next expiry check.
			select {
			case fw.events <- Signal{Marker: strings.TrimSpace(string(data))}:
			default:
			}
		case _, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
		}
	}
}

// Events returns the signal channel.
func (fw *FileWatcher) Events() <-chan Signal {
	return fw.events
}

// Close stops watching. The events channel closes shortly after.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
