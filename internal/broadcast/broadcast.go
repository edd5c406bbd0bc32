// Package broadcast carries the logout signal between client processes.
//
// The signal is a pure change notification: its marker payload identifies
// the originating logout but carries no other meaning. Delivery is best
// effort while the process is running; a process that misses a signal
// self-corrects on its next expiry check.
package broadcast

import "context"

// Signal is one observed logout notification.
type Signal struct {
	// Marker is the value written by the originating logout, used by
	// receivers to discard their own signals.
	Marker string
}

// Watcher delivers logout signals produced by other processes.
type Watcher interface {
	// Events returns the signal channel. It is closed when the watcher
	// is closed or its underlying source fails.
	Events() <-chan Signal

	Close() error
}

// Publisher pushes a logout marker to processes beyond the local machine.
// Same-machine processes observe the shared signal file directly, so a
// Publisher is only needed for cross-host propagation.
type Publisher interface {
	Publish(ctx context.Context, marker string) error
}
