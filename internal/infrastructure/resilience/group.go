package resilience

import "sync"

// Group hands out one breaker per key, created lazily with shared settings.
// The image prober keys breakers by remote host so one failing origin does
// not block probes against the others.
type Group struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty breaker group.
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[key]; ok {
		return b
	}
	b := New(key, g.settings)
	g.breakers[key] = b
	return b
}

// States reports the current state of every breaker in the group.
func (g *Group) States() map[string]State {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		breakers = append(breakers, b)
	}
	g.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, b := range breakers {
		out[b.Name()] = b.State()
	}
	return out
}
