package pagination

import (
	"fmt"
	"sync"

	"github.com/matst80/jobboard/pkg/types"
)

// Handle is a rendered item that can scroll itself into view.
type Handle interface {
	ScrollIntoView()
}

// Scroller is a scrollable region, a named container or the window itself.
type Scroller interface {
	ScrollToTop()
}

type Tier string

const (
	TierNone      Tier = "none"
	TierItem      Tier = "item"
	TierContainer Tier = "container"
	TierWindow    Tier = "window"
)

type AnchorResult struct {
	Tier   Tier   `json:"tier"`
	Target string `json:"target,omitempty"`
}

// Registry maps stable item ids and container names to what the rendering layer mounted.
type Registry struct {
	mu         sync.RWMutex
	handles    map[string]Handle
	containers map[string]Scroller
}

func NewRegistry() *Registry {
	return &Registry{
		handles:    make(map[string]Handle),
		containers: make(map[string]Scroller),
	}
}

func (r *Registry) Register(itemId string, h Handle) {
	r.mu.Lock()
	r.handles[itemId] = h
	r.mu.Unlock()
}

func (r *Registry) Unregister(itemId string) {
	r.mu.Lock()
	delete(r.handles, itemId)
	r.mu.Unlock()
}

func (r *Registry) RegisterContainer(name string, s Scroller) {
	r.mu.Lock()
	r.containers[name] = s
	r.mu.Unlock()
}

func (r *Registry) UnregisterContainer(name string) {
	r.mu.Lock()
	delete(r.containers, name)
	r.mu.Unlock()
}

func (r *Registry) handle(itemId string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[itemId]
	return h, ok && h != nil
}

func (r *Registry) container(name string) (Scroller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.containers[name]
	return s, ok && s != nil
}

func ContainerName(source types.Source) string {
	return fmt.Sprintf("jobs-%s-list", source)
}

// Anchorer tries the item, then the source's scroll container, then the window.
type Anchorer struct {
	registry  *Registry
	window    Scroller
	container func(types.Source) string
}

func NewAnchorer(registry *Registry, window Scroller) *Anchorer {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Anchorer{registry: registry, window: window, container: ContainerName}
}

func (a *Anchorer) Anchor(source types.Source, firstItemId string) AnchorResult {
	if firstItemId != "" {
		if h, ok := a.registry.handle(firstItemId); ok {
			h.ScrollIntoView()
			return AnchorResult{Tier: TierItem, Target: firstItemId}
		}
	}
	name := a.container(source)
	if s, ok := a.registry.container(name); ok {
		s.ScrollToTop()
		return AnchorResult{Tier: TierContainer, Target: name}
	}
	if a.window != nil {
		a.window.ScrollToTop()
	}
	return AnchorResult{Tier: TierWindow}
}
