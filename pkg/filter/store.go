// Package filter holds the multi-facet filter selection of a board and its option lists.
package filter

import (
	"errors"
	"sync"

	"github.com/matst80/jobboard/pkg/types"
)

var ErrInvalidSalaryRange = errors.New("salary min is greater than max")

type ChangeListener func(types.FilterSelection)

// Store owns the current selection. Pagination is not its concern; listeners reset it.
type Store struct {
	mu        sync.RWMutex
	bounds    types.SalaryRange
	selection types.FilterSelection
	options   map[types.FacetKey]types.IdSet
	listeners []ChangeListener
}

func NewStore(bounds types.SalaryRange) *Store {
	return &Store{
		bounds:    bounds,
		selection: types.EmptySelection(bounds),
		options:   make(map[types.FacetKey]types.IdSet),
	}
}

func (s *Store) OnChange(fn ChangeListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) Bounds() types.SalaryRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *Store) SetBounds(bounds types.SalaryRange) {
	s.mu.Lock()
	s.bounds = bounds
	s.mu.Unlock()
}

// SetOptions replaces the option list of a facet.
func (s *Store) SetOptions(key types.FacetKey, options []types.Option) {
	if !key.Valid() {
		return
	}
	ids := make(types.IdSet, len(options))
	for _, o := range options {
		ids[o.Id] = struct{}{}
	}
	s.mu.Lock()
	s.options[key] = ids
	s.mu.Unlock()
}

func (s *Store) Selection() types.FilterSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Clone()
}

// ApplyAll replaces the whole selection, as the filter dialog does on apply.
func (s *Store) ApplyAll(sel types.FilterSelection) error {
	if !sel.Salary.Valid() {
		return ErrInvalidSalaryRange
	}
	next := sel.Clone()
	s.mu.Lock()
	s.selection = next
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, next)
	return nil
}

// ToggleFacetValue flips one id in one facet. Adding an id that is missing from the current
// option list is ignored, removing a selected id is always allowed.
func (s *Store) ToggleFacetValue(key types.FacetKey, id string) bool {
	if !key.Valid() {
		return false
	}
	s.mu.Lock()
	current := s.selection.Facet(key)
	if !current.Has(id) && !s.options[key].Has(id) {
		s.mu.Unlock()
		return false
	}
	next := s.selection.WithToggled(key, id)
	s.selection = next
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, next.Clone())
	return true
}

// ActiveCount is for the filter badge only.
func (s *Store) ActiveCount(bounds types.SalaryRange) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActiveCount(s.selection, bounds)
}

func ActiveCount(sel types.FilterSelection, bounds types.SalaryRange) int {
	count := sel.FacetCount()
	if sel.Salary.ActiveAgainst(bounds) {
		count++
	}
	return count
}

func (s *Store) notify(listeners []ChangeListener, sel types.FilterSelection) {
	for _, l := range listeners {
		l(sel)
	}
}
