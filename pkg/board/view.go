package board

import (
	"github.com/matst80/jobboard/pkg/fetch"
	"github.com/matst80/jobboard/pkg/pagination"
	"github.com/matst80/jobboard/pkg/types"
)

type JobView struct {
	types.Job
	Bookmarked bool `json:"bookmarked"`
}

// View is what one job list renders.
type View struct {
	Source       types.Source             `json:"source"`
	Status       fetch.Status             `json:"status"`
	Error        string                   `json:"error,omitempty"`
	Items        []JobView                `json:"items"`
	Pagination   types.Pagination         `json:"pagination"`
	ShowControls bool                     `json:"showControls"`
	Anchor       *pagination.AnchorResult `json:"anchor,omitempty"`
}

func (b *Board) View(source types.Source) View {
	state := b.fetcher.State(source)
	v := View{
		Source:       source,
		Status:       state.Status,
		Items:        make([]JobView, 0, len(state.Collection.Items)),
		Pagination:   state.Collection.Pagination,
		ShowControls: b.pages.ShowControls(state.Collection.Pagination),
	}
	if state.Err != nil {
		v.Error = state.Err.Error()
	}
	for _, job := range state.Collection.Items {
		saved := b.bookmarks != nil && b.bookmarks.IsBookmarked(job.Id)
		v.Items = append(v.Items, JobView{Job: job, Bookmarked: saved})
	}
	b.mu.Lock()
	if a, ok := b.anchors[source]; ok {
		v.Anchor = &a
	}
	b.mu.Unlock()
	return v
}

// Summary is the header of the board: filter badge and the current address bar.
type Summary struct {
	Query             string                `json:"query"`
	Criteria          types.SearchCriteria  `json:"criteria"`
	Selection         types.FilterSelection `json:"-"`
	ActiveFilterCount int                   `json:"activeFilterCount"`
	Views             []View                `json:"views"`
}

func (b *Board) Summary() Summary {
	s := Summary{
		Query:             b.Query(),
		Criteria:          b.Criteria(),
		Selection:         b.Selection(),
		ActiveFilterCount: b.ActiveFilterCount(),
	}
	for _, source := range types.Sources {
		s.Views = append(s.Views, b.View(source))
	}
	return s
}
