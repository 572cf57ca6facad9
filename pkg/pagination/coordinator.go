// Package pagination keeps the page window of every job source and restores the reader's
// position after a page change.
package pagination

import (
	"sync"

	"github.com/matst80/jobboard/pkg/types"
)

const DefaultPageSize = 10

type actionKind int

const (
	actionSetPage actionKind = iota
	actionSetPageSize
	actionReset
)

type action struct {
	kind     actionKind
	page     int
	pageSize int
}

func reduce(w types.Window, a action) types.Window {
	switch a.kind {
	case actionSetPage:
		w.Page = max(a.page, 1)
	case actionSetPageSize:
		w.Page = max(a.page, 1)
		if a.pageSize > 0 {
			w.PageSize = a.pageSize
		}
	case actionReset:
		w.Page = 1
	}
	return w
}

// ChangeListener is told about explicit page and page size changes so a fetch can follow.
type ChangeListener func(source types.Source, window types.Window)

type Coordinator struct {
	mu        sync.RWMutex
	windows   map[types.Source]types.Window
	listeners []ChangeListener
	anchor    *Anchorer
}

func NewCoordinator(pageSize int, anchor *Anchorer, sources ...types.Source) *Coordinator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if len(sources) == 0 {
		sources = types.Sources
	}
	windows := make(map[types.Source]types.Window, len(sources))
	for _, s := range sources {
		windows[s] = types.Window{Page: 1, PageSize: pageSize}
	}
	return &Coordinator{windows: windows, anchor: anchor}
}

func (c *Coordinator) OnChange(fn ChangeListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Coordinator) Window(source types.Source) types.Window {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.windows[source]
}

func (c *Coordinator) dispatch(source types.Source, a action, notify bool) (types.Window, bool) {
	c.mu.Lock()
	current, ok := c.windows[source]
	if !ok {
		c.mu.Unlock()
		return types.Window{}, false
	}
	next := reduce(current, a)
	c.windows[source] = next
	listeners := c.listeners
	c.mu.Unlock()

	if notify {
		for _, l := range listeners {
			l(source, next)
		}
	}
	return next, true
}

func (c *Coordinator) SetPage(source types.Source, page int) (types.Window, bool) {
	return c.dispatch(source, action{kind: actionSetPage, page: page}, true)
}

func (c *Coordinator) SetPageSize(source types.Source, page, pageSize int) (types.Window, bool) {
	return c.dispatch(source, action{kind: actionSetPageSize, page: page, pageSize: pageSize}, true)
}

// SyncPage moves the window without notifying, used when the page arrives from the URL
// together with other changes that already trigger a fetch.
func (c *Coordinator) SyncPage(source types.Source, page int) {
	c.dispatch(source, action{kind: actionSetPage, page: page}, false)
}

// ResetOnCriteriaChange puts every source back on page 1. No listener is called, the caller
// issues one merged fetch afterwards.
func (c *Coordinator) ResetOnCriteriaChange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for s, w := range c.windows {
		c.windows[s] = reduce(w, action{kind: actionReset})
	}
}

func (c *Coordinator) ShowControls(p types.Pagination) bool {
	return p.ShowControls()
}

// ScrollAnchor brings the first item of a freshly rendered page into view.
func (c *Coordinator) ScrollAnchor(source types.Source, firstItemId string) AnchorResult {
	if c.anchor == nil {
		return AnchorResult{Tier: TierNone}
	}
	return c.anchor.Anchor(source, firstItemId)
}
