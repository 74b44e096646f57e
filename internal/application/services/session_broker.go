package services

import (
	"sync"

	"github.com/google/uuid"
)

// SessionEvent reports a user signing in (Active) or out.
type SessionEvent struct {
	UserID uuid.UUID
	Active bool
}

// SessionBroker fans session changes out to listeners and ends the live
// streams of users who sign out.
type SessionBroker struct {
	mu        sync.Mutex
	watchers  map[uuid.UUID]map[chan struct{}]struct{}
	listeners map[int]func(SessionEvent)
	nextID    int
	// epochs counts sign outs per user. Access tokens carry the epoch they
	// were issued in and are refused once it has moved on.
	epochs    map[uuid.UUID]uint64
}

func NewSessionBroker() *SessionBroker {
	return &SessionBroker{
		watchers:  make(map[uuid.UUID]map[chan struct{}]struct{}),
		listeners: make(map[int]func(SessionEvent)),
		epochs:    make(map[uuid.UUID]uint64),
	}
}

// Watch returns a channel closed when userID signs out, and a function that
// stops watching.
func (b *SessionBroker) Watch(userID uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	if b.watchers[userID] == nil {
		b.watchers[userID] = make(map[chan struct{}]struct{})
	}
	b.watchers[userID][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.watchers[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.watchers, userID)
			}
		}
	}
}

// OnChange registers fn for every session event.
func (b *SessionBroker) OnChange(fn func(SessionEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev to listeners. A sign out also closes every watch of
// that user.
func (b *SessionBroker) Publish(ev SessionEvent) {
	b.mu.Lock()
	if !ev.Active {
		b.epochs[ev.UserID]++
		for ch := range b.watchers[ev.UserID] {
			close(ch)
		}
		delete(b.watchers, ev.UserID)
	}
	listeners := make([]func(SessionEvent), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Watching reports how many watches are open for userID.
func (b *SessionBroker) Watching(userID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers[userID])
}

// Epoch returns how many times userID has signed out since start.
func (b *SessionBroker) Epoch(userID uuid.UUID) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epochs[userID]
}
