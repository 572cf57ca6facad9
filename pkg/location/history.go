// Package location keeps the address bar of a headless board session.
package location

import (
	"strings"
	"sync"

	"github.com/matst80/jobboard/pkg/query"
	"github.com/matst80/jobboard/pkg/types"
)

type Listener func(types.SearchCriteria)

// History is an in-memory address bar. Replace is the only way the query changes.
type History struct {
	mu        sync.RWMutex
	current   string
	listeners map[int]Listener
	nextId    int
}

func NewHistory(initial string) *History {
	return &History{
		current:   strings.TrimPrefix(initial, "?"),
		listeners: make(map[int]Listener),
	}
}

func (h *History) Current() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

func (h *History) Criteria() types.SearchCriteria {
	return query.Parse(h.Current())
}

// Subscribe registers fn for every future Replace and returns a function removing it.
func (h *History) Subscribe(fn Listener) func() {
	h.mu.Lock()
	id := h.nextId
	h.nextId++
	h.listeners[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Replace swaps the current query and notifies listeners outside the lock.
func (h *History) Replace(rawQuery string) {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	h.mu.Lock()
	h.current = rawQuery
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	criteria := query.Parse(rawQuery)
	for _, l := range listeners {
		l(criteria)
	}
}
