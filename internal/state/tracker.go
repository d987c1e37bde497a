// Package state holds the latest values produced by the poller and notifies listeners when they
// change. It is the feed a presentation layer renders from.
package state

import (
	"log/slog"
	"maps"
	"sync"
)

const (
	// AnyKey registers a listener for every key.
	AnyKey     = ""
	KeyFriends = "friends"
	KeyError   = "error"
	KeyUpdated = "updated"
)

// Sink receives key/value updates.
type Sink interface {
	Set(key string, value any)
}

// Change is sent to listeners whenever a key is set.
type Change struct {
	Key   string
	Value any
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Tracker{
		values:    map[string]any{},
		listeners: map[string][]chan<- Change{},
		mu:        &sync.RWMutex{},
		notifyMu:  &sync.Mutex{},
		logger:    logger.With(slog.String("module", "state")),
	}
}

// Tracker is the default Sink implementation.
type Tracker struct {
	values    map[string]any
	listeners map[string][]chan<- Change
	mu        *sync.RWMutex
	// notifyMu serializes Set so listeners see changes in the order they were stored.
	notifyMu *sync.Mutex
	logger   *slog.Logger
}

// ListenFor registers a channel to start receiving changes for the key. Changes are dropped for
// listeners that are not ready to receive so a slow reader never stalls the writer.
func (t *Tracker) ListenFor(key string, listener chan<- Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.listeners[key] = append(t.listeners[key], listener)
}

func (t *Tracker) Set(key string, value any) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	t.values[key] = value
	listeners := append(append([]chan<- Change{}, t.listeners[key]...), t.listeners[AnyKey]...)
	t.mu.Unlock()

	change := Change{Key: key, Value: value}
	for _, listener := range listeners {
		select {
		case listener <- change:
		default:
			t.logger.Warn("Dropped state change, listener not ready", slog.String("key", key))
		}
	}
}

func (t *Tracker) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	value, found := t.values[key]

	return value, found
}

// Snapshot returns a copy of all current values.
func (t *Tracker) Snapshot() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return maps.Clone(t.values)
}
