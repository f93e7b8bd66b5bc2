package navtest

import (
	"sync"

	"github.com/vango-dev/navflow/pkg/navigate"
)

// Platform is a navigate.Platform whose events are fired by the test.
type Platform struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(navigate.PlatformEvent)
}

var _ navigate.Platform = (*Platform)(nil)

// NewPlatform creates a Platform with no listeners.
func NewPlatform() *Platform {
	return &Platform{listeners: make(map[int]func(navigate.PlatformEvent))}
}

// Listen implements navigate.Platform.
func (p *Platform) Listen(fn func(navigate.PlatformEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Emit delivers ev to every listener, synchronously.
func (p *Platform) Emit(ev navigate.PlatformEvent) {
	p.mu.Lock()
	fns := make([]func(navigate.PlatformEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Listeners returns the number of registered listeners.
func (p *Platform) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}
