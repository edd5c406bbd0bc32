package broadcast

import "sync"

// Merge fans several watchers into one. The merged events channel closes
// once every source channel has closed.
func Merge(watchers ...Watcher) Watcher {
	if len(watchers) == 1 {
		return watchers[0]
	}

	m := &merged{
		watchers: watchers,
		events:   make(chan Signal, 8),
	}

	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w Watcher) {
			defer wg.Done()
			for sig := range w.Events() {
				select {
				case m.events <- sig:
				default:
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		close(m.events)
	}()

	return m
}

type merged struct {
	watchers []Watcher
	events   chan Signal
}

func (m *merged) Events() <-chan Signal {
	return m.events
}

func (m *merged) Close() error {
	var firstErr error
	for _, w := range m.watchers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
