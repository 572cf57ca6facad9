package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/matst80/jobboard/pkg/auth"
	"github.com/matst80/jobboard/pkg/board"
	"github.com/matst80/jobboard/pkg/bookmark"
	"github.com/matst80/jobboard/pkg/common"
	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/filter"
	"github.com/matst80/jobboard/pkg/popup"
	"github.com/matst80/jobboard/pkg/types"
	"golang.org/x/sync/errgroup"
)

type app struct {
	sessions *sessionStore
	tokens   *auth.TokenService
	options  filter.OptionsSource
	placer   popup.Placer
	delays   popup.Delays
}

type searchRequest struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

type navigateRequest struct {
	Query string `json:"query"`
}

type pageRequest struct {
	Source   types.Source `json:"source"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize,omitempty"`
}

type filtersRequest struct {
	Levels            []string `json:"levels"`
	WorkingModels     []string `json:"workingModels"`
	JobDomains        []string `json:"jobDomains"`
	CompanyIndustries []string `json:"companyIndustries"`
	SalaryMin         float64  `json:"salaryMin"`
	SalaryMax         float64  `json:"salaryMax"`
}

func (f filtersRequest) selection() types.FilterSelection {
	return types.FilterSelection{
		Levels:            types.NewIdSet(f.Levels...),
		WorkingModels:     types.NewIdSet(f.WorkingModels...),
		JobDomains:        types.NewIdSet(f.JobDomains...),
		CompanyIndustries: types.NewIdSet(f.CompanyIndustries...),
		Salary:            types.SalaryRange{Min: f.SalaryMin, Max: f.SalaryMax},
	}
}

type placeRequest struct {
	Trigger  popup.Rect     `json:"trigger"`
	Viewport popup.Viewport `json:"viewport"`
	Size     popup.Size     `json:"size"`
}

// placeResponse carries the hover delays so clients time the card the same way.
type placeResponse struct {
	popup.Geometry
	OpenDelayMs  int64 `json:"openDelayMs"`
	CloseDelayMs int64 `json:"closeDelayMs"`
}

type bookmarkResponse struct {
	JobId      string `json:"jobId"`
	Bookmarked bool   `json:"bookmarked"`
}

func decode(r *http.Request, v any) error {
	if err := jsoncompat.NewDecoder(r.Body).Decode(v); err != nil {
		return common.NewHttpError(http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
	}
	return nil
}

// session resolves the board of the request and refreshes the signed-in user.
func (a *app) session(r *http.Request, sessionId string) *session {
	s := a.sessions.get(sessionId)
	if a.tokens == nil {
		return s
	}
	id, err := a.tokens.FromRequest(r)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			log.Printf("rejected token: %v", err)
		}
		id = nil
	}
	prev := s.identity.Swap(id)
	switch {
	case id == nil:
		if prev != nil {
			resetBookmarks(s.board)
		}
	case prev == nil || prev.Username != id.Username:
		resetBookmarks(s.board)
		loadBookmarks(r.Context(), s.board)
	}
	return s
}

// resetBookmarks drops the saved set of the previous user.
func resetBookmarks(b *board.Board) {
	if rec := b.Bookmarks(); rec != nil {
		rec.Reset()
	}
}

func loadBookmarks(ctx context.Context, b *board.Board) {
	if rec := b.Bookmarks(); rec != nil {
		if err := rec.Load(ctx); err != nil {
			log.Printf("failed to load saved jobs: %v", err)
		}
	}
}

// respond writes the board summary. With ?wait=1 the quiet period is skipped and the
// response holds the fetched results.
func respond(r *http.Request, b *board.Board, enc jsoncompat.Encoder) error {
	if r.URL.Query().Get("wait") == "1" {
		b.Flush()
		b.Wait()
	}
	return enc.Encode(b.Summary())
}

func (a *app) GetBoard(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	return respond(r, a.session(r, sessionId).board, enc)
}

func (a *app) Search(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	b := a.session(r, sessionId).board
	b.Search(req.Title, req.Location)
	return respond(r, b, enc)
}

func (a *app) Navigate(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	var req navigateRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	b := a.session(r, sessionId).board
	b.Navigate(req.Query)
	return respond(r, b, enc)
}

func (a *app) SetPage(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	var req pageRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if !req.Source.Valid() {
		return common.NewHttpError(http.StatusBadRequest, fmt.Errorf("unknown source %q", req.Source))
	}
	if req.Page < 1 {
		return common.NewHttpError(http.StatusBadRequest, errors.New("page must be at least 1"))
	}
	b := a.session(r, sessionId).board
	if req.PageSize > 0 {
		b.SetPageSize(req.Source, req.Page, req.PageSize)
	} else {
		b.SetPage(req.Source, req.Page)
	}
	return respond(r, b, enc)
}

func (a *app) ApplyFilters(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	var req filtersRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	b := a.session(r, sessionId).board
	if err := b.ApplyFilters(req.selection()); err != nil {
		return common.NewHttpError(http.StatusBadRequest, err)
	}
	return respond(r, b, enc)
}

func (a *app) ToggleFacet(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	key := types.FacetKey(r.PathValue("key"))
	if !key.Valid() {
		return common.NewHttpError(http.StatusNotFound, fmt.Errorf("unknown facet %q", key))
	}
	b := a.session(r, sessionId).board
	b.ToggleFacet(key, r.PathValue("id"))
	return respond(r, b, enc)
}

// GetFacets returns every option list and installs them in the session's filter store.
func (a *app) GetFacets(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	b := a.session(r, sessionId).board
	if err := b.LoadFacetOptions(r.Context()); err != nil {
		return common.NewHttpError(http.StatusBadGateway, err)
	}
	result := make(map[types.FacetKey][]types.Option, len(types.FacetKeys))
	lists := make([][]types.Option, len(types.FacetKeys))
	g, ctx := errgroup.WithContext(r.Context())
	for i, key := range types.FacetKeys {
		g.Go(func() error {
			options, err := a.options.FacetOptions(ctx, key)
			lists[i] = options
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return common.NewHttpError(http.StatusBadGateway, err)
	}
	for i, key := range types.FacetKeys {
		result[key] = lists[i]
	}
	return enc.Encode(struct {
		Options           map[types.FacetKey][]types.Option `json:"options"`
		ActiveFilterCount int                               `json:"activeFilterCount"`
	}{result, b.ActiveFilterCount()})
}

func (a *app) ToggleBookmark(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	jobId := r.PathValue("id")
	b := a.session(r, sessionId).board
	err := b.ToggleBookmark(r.Context(), jobId)
	switch {
	case errors.Is(err, bookmark.ErrUnauthenticated):
		w.Header().Set("Location", "/login?next="+url.QueryEscape("/bookmarks/"+jobId))
		return common.NewHttpError(http.StatusUnauthorized, err)
	case errors.Is(err, bookmark.ErrRoleNotAllowed):
		return common.NewHttpError(http.StatusForbidden, err)
	case errors.Is(err, board.ErrNoBookmarks):
		return common.NewHttpError(http.StatusNotImplemented, err)
	case err != nil:
		return common.NewHttpError(http.StatusBadGateway, err)
	}
	return enc.Encode(bookmarkResponse{JobId: jobId, Bookmarked: b.Bookmarks().IsBookmarked(jobId)})
}

func (a *app) PlacePopup(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	var req placeRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	return enc.Encode(placeResponse{
		Geometry:     a.placer.Place(req.Trigger, req.Viewport, req.Size),
		OpenDelayMs:  a.delays.Open.Milliseconds(),
		CloseDelayMs: a.delays.Close.Milliseconds(),
	})
}

func (a *app) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("OPTIONS /", common.RespondToOptions)
	mux.HandleFunc("GET /board", common.JsonHandler(a.GetBoard))
	mux.HandleFunc("POST /board/search", common.JsonHandler(a.Search))
	mux.HandleFunc("POST /board/navigate", common.JsonHandler(a.Navigate))
	mux.HandleFunc("POST /board/page", common.JsonHandler(a.SetPage))
	mux.HandleFunc("PUT /board/filters", common.JsonHandler(a.ApplyFilters))
	mux.HandleFunc("POST /board/facets/{key}/{id}", common.JsonHandler(a.ToggleFacet))
	mux.HandleFunc("GET /facets", common.JsonHandler(a.GetFacets))
	mux.HandleFunc("POST /bookmarks/{id}", common.JsonHandler(a.ToggleBookmark))
	mux.HandleFunc("POST /popup/place", common.JsonHandler(a.PlacePopup))
	return mux
}
