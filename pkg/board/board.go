// Package board wires the address bar, the filter store, pagination and the fetch orchestrator
// into one job board view session.
package board

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matst80/jobboard/pkg/bookmark"
	"github.com/matst80/jobboard/pkg/fetch"
	"github.com/matst80/jobboard/pkg/filter"
	"github.com/matst80/jobboard/pkg/location"
	"github.com/matst80/jobboard/pkg/pagination"
	"github.com/matst80/jobboard/pkg/query"
	"github.com/matst80/jobboard/pkg/tracking"
	"github.com/matst80/jobboard/pkg/types"
)

var ErrNoBookmarks = errors.New("bookmarks are not enabled for this board")

type Config struct {
	Fetcher fetch.Fetcher
	// Options feeds the facet option lists, usually a filter.OptionsCache.
	Options      filter.OptionsSource
	SalaryBounds types.SalaryRange
	PageSize     int
	Debounce     time.Duration
	Clock        clockwork.Clock
	InitialQuery string

	Registry *pagination.Registry
	Window   pagination.Scroller

	Bookmarks *bookmark.Reconciler
	Tracking  tracking.Tracking
	SessionId string
}

type Board struct {
	sessionId string
	history   *location.History
	filters   *filter.Store
	pages     *pagination.Coordinator
	fetcher   *fetch.Orchestrator
	options   filter.OptionsSource
	bookmarks *bookmark.Reconciler
	tracking  tracking.Tracking

	mu       sync.Mutex
	mounted  bool
	criteria types.SearchCriteria
	armed    map[types.Source]bool
	anchors  map[types.Source]pagination.AnchorResult

	unsubscribe func()
}

func New(cfg Config) *Board {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = fetch.DefaultDebounce
	}
	if cfg.SessionId == "" {
		cfg.SessionId = tracking.NewSessionId()
	}
	b := &Board{
		sessionId: cfg.SessionId,
		history:   location.NewHistory(cfg.InitialQuery),
		filters:   filter.NewStore(cfg.SalaryBounds),
		pages:     pagination.NewCoordinator(cfg.PageSize, pagination.NewAnchorer(cfg.Registry, cfg.Window)),
		options:   cfg.Options,
		bookmarks: cfg.Bookmarks,
		tracking:  cfg.Tracking,
		armed:     make(map[types.Source]bool),
		anchors:   make(map[types.Source]pagination.AnchorResult),
	}
	b.fetcher = fetch.NewOrchestrator(cfg.Fetcher,
		fetch.WithClock(cfg.Clock),
		fetch.WithDebounce(cfg.Debounce),
		fetch.WithUpdateListener(b.onUpdate),
	)
	b.filters.OnChange(b.onFilters)
	b.pages.OnChange(b.onPage)
	b.unsubscribe = b.history.Subscribe(b.onLocation)
	return b
}

func (b *Board) SessionId() string {
	return b.sessionId
}

// Mount applies the current address bar and triggers the first fetch of every source.
func (b *Board) Mount() {
	b.onLocation(b.history.Criteria())
}

// Search starts a new keyword search on page 1. The address bar is the only way in.
func (b *Board) Search(title, location string) {
	query.Navigate(b.history, types.SearchCriteria{Page: 1, Title: title, Location: location})
}

// Navigate applies an external address bar change such as back and forward.
func (b *Board) Navigate(rawQuery string) {
	b.history.Replace(rawQuery)
}

func (b *Board) Query() string {
	return b.history.Current()
}

func (b *Board) Criteria() types.SearchCriteria {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.criteria
}

func (b *Board) onLocation(c types.SearchCriteria) {
	b.mu.Lock()
	prev, first := b.criteria, !b.mounted
	b.mounted = true
	b.criteria = c
	b.mu.Unlock()

	switch {
	case first || !c.SameQuery(prev):
		b.disarm()
		b.pages.ResetOnCriteriaChange()
		b.pages.SyncPage(types.SourcePrimary, c.Page)
		b.refetchAll()
	case c.Page != prev.Page:
		b.pages.SyncPage(types.SourcePrimary, c.Page)
		b.arm(types.SourcePrimary)
		b.refetch(types.SourcePrimary)
	}
}

func (b *Board) ApplyFilters(sel types.FilterSelection) error {
	return b.filters.ApplyAll(sel)
}

// ToggleFacet flips one facet chip. It reports false when nothing changed.
func (b *Board) ToggleFacet(key types.FacetKey, id string) bool {
	return b.filters.ToggleFacetValue(key, id)
}

func (b *Board) Selection() types.FilterSelection {
	return b.filters.Selection()
}

func (b *Board) ActiveFilterCount() int {
	return b.filters.ActiveCount(b.filters.Bounds())
}

// LoadFacetOptions fills every facet option list. Without an options source it is a no-op.
func (b *Board) LoadFacetOptions(ctx context.Context) error {
	if b.options == nil {
		return nil
	}
	return filter.LoadOptions(ctx, b.filters, b.options, types.FacetKeys...)
}

func (b *Board) onFilters(types.FilterSelection) {
	b.disarm()
	b.pages.ResetOnCriteriaChange()
	b.resetUrlPage()
	b.refetchAll()
}

// resetUrlPage rewrites the address bar to page 1. The criteria are updated first so the
// resulting location change is a no-op.
func (b *Board) resetUrlPage() {
	b.mu.Lock()
	if b.criteria.Page == 1 {
		b.mu.Unlock()
		return
	}
	b.criteria = b.criteria.WithPage(1)
	c := b.criteria
	b.mu.Unlock()
	query.Navigate(b.history, c)
}

// SetPage moves one source. The primary page lives in the address bar.
func (b *Board) SetPage(source types.Source, page int) {
	if source == types.SourcePrimary {
		b.mu.Lock()
		c := b.criteria.WithPage(page)
		b.mu.Unlock()
		query.Navigate(b.history, c)
		return
	}
	b.pages.SetPage(source, page)
}

func (b *Board) SetPageSize(source types.Source, page, pageSize int) {
	if source == types.SourcePrimary {
		b.mu.Lock()
		b.criteria = b.criteria.WithPage(page)
		c := b.criteria
		b.mu.Unlock()
		query.Navigate(b.history, c)
	}
	b.pages.SetPageSize(source, page, pageSize)
}

func (b *Board) onPage(source types.Source, _ types.Window) {
	b.arm(source)
	b.refetch(source)
}

func (b *Board) arm(source types.Source) {
	b.mu.Lock()
	b.armed[source] = true
	b.mu.Unlock()
}

// disarm drops pending scroll anchoring. Criteria resets land on page 1 without anchoring.
func (b *Board) disarm() {
	b.mu.Lock()
	clear(b.armed)
	b.mu.Unlock()
}

func (b *Board) refetchAll() {
	for _, s := range types.Sources {
		b.refetch(s)
	}
}

func (b *Board) refetch(source types.Source) {
	b.mu.Lock()
	c := b.criteria
	b.mu.Unlock()
	params := types.MergeParams(c, b.filters.Selection(), b.pages.Window(source))
	b.fetcher.OnCriteriaChange(source, params)
}

// Flush skips the quiet period of every source.
func (b *Board) Flush() {
	for _, s := range types.Sources {
		b.fetcher.Flush(s)
	}
}

func (b *Board) Wait() {
	b.fetcher.Wait()
}

func (b *Board) onUpdate(source types.Source, state fetch.SourceState) {
	b.mu.Lock()
	armed := b.armed[source]
	delete(b.armed, source)
	b.mu.Unlock()
	if state.Status != fetch.StatusSucceeded {
		return
	}

	if armed {
		first, _ := state.Collection.FirstId()
		result := b.pages.ScrollAnchor(source, first)
		b.mu.Lock()
		b.anchors[source] = result
		b.mu.Unlock()
	}

	if source == types.SourcePrimary && b.tracking != nil && state.Issued != nil {
		if err := b.tracking.TrackSearch(b.sessionId, *state.Issued, state.Collection.Pagination); err != nil {
			log.Printf("failed to track search: %v", err)
		}
	}
}

func (b *Board) Bookmarks() *bookmark.Reconciler {
	return b.bookmarks
}

// ToggleBookmark saves or unsaves a job for the signed-in candidate.
func (b *Board) ToggleBookmark(ctx context.Context, jobId string) error {
	if b.bookmarks == nil {
		return ErrNoBookmarks
	}
	if err := b.bookmarks.Toggle(ctx, jobId); err != nil {
		return err
	}
	if b.tracking != nil {
		if err := b.tracking.TrackBookmark(b.sessionId, jobId, b.bookmarks.IsBookmarked(jobId)); err != nil {
			log.Printf("failed to track bookmark: %v", err)
		}
	}
	return nil
}

// Close is the unmount: timers stop, in-flight requests are cancelled and late results dropped.
func (b *Board) Close() {
	b.unsubscribe()
	b.fetcher.Close()
}
