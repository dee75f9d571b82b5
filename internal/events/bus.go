package events

import "sync"

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous per-kind observer registry. Publish invokes kind
// subscribers first, then catch-all subscribers, on the caller's goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]Handler
	all  []Handler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]Handler)}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(k Kind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[k] = append(b.subs[k], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish delivers ev to all matching handlers synchronously.
func (b *Bus) Publish(ev Event) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	kindSubs := b.subs[ev.Kind()]
	allSubs := b.all
	b.mu.RUnlock()

	for _, h := range kindSubs {
		h(ev)
	}
	for _, h := range allSubs {
		h(ev)
	}
}
