package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/matst80/jobboard/pkg/auth"
	"github.com/matst80/jobboard/pkg/board"
	"github.com/matst80/jobboard/pkg/bookmark"
	"github.com/matst80/jobboard/pkg/client"
	"github.com/matst80/jobboard/pkg/common"
	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/filter"
	"github.com/matst80/jobboard/pkg/popup"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenKey = "test-key"

// fakeBackend is a minimal job board REST api.
type fakeBackend struct {
	mu    sync.Mutex
	saved map[string]bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	enc := jsoncompat.NewEncoder(w)
	switch {
	case r.URL.Path == "/jobs" || r.URL.Path == "/jobs/top-cv":
		q := r.URL.Query()
		title := q.Get("title")
		c := types.JobCollection{Pagination: types.Pagination{Page: 1, PageSize: 10}}
		if title != "nothing" {
			c.Pagination.Total = 2
			for i := range 2 {
				c.Items = append(c.Items, types.Job{Id: fmt.Sprintf("%s%s-%d", title, r.URL.Path, i), Title: title})
			}
		}
		_ = enc.Encode(c)
	case r.URL.Path == "/levels":
		_ = enc.Encode([]types.Option{{Id: "senior", Name: "Senior"}})
	case strings.HasPrefix(r.URL.Path, "/saved-jobs/"):
		id := strings.TrimPrefix(r.URL.Path, "/saved-jobs/")
		if r.Method == http.MethodPost {
			f.saved[id] = true
		} else {
			delete(f.saved, id)
		}
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/saved-jobs":
		refs := []types.SavedJobRef{}
		for id := range f.saved {
			refs = append(refs, types.SavedJobRef{JobId: id})
		}
		_ = enc.Encode(refs)
	default:
		_ = enc.Encode([]types.Option{})
	}
}

type testApp struct {
	handler  http.Handler
	sessions *sessionStore
	clock    interface {
		clockwork.Clock
		Advance(time.Duration)
	}
	tokens *auth.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	backend := httptest.NewServer(&fakeBackend{saved: map[string]bool{}})
	t.Cleanup(backend.Close)

	api := client.New(backend.URL)
	options := filter.NewOptionsCache(api, nil, time.Minute)
	clock := clockwork.NewFakeClock()
	tokens := auth.NewTokenService([]byte(tokenKey), time.Hour)
	sessions := newSessionStore(func(sessionId string, identity func() *auth.Identity) *board.Board {
		return board.New(board.Config{
			Fetcher:      api,
			Options:      options,
			SalaryBounds: types.SalaryRange{Min: 0, Max: 5000},
			Clock:        clock,
			SessionId:    sessionId,
			Bookmarks:    bookmark.NewReconciler(api, bookmark.Config{Identity: identity}),
		})
	}, time.Minute, clock)
	t.Cleanup(func() { _ = sessions.Close(t.Context()) })

	a := &app{
		sessions: sessions,
		tokens:   tokens,
		options:  options,
		placer:   popup.NewPlacer(),
		delays:   popup.Delays{Open: 250 * time.Millisecond, Close: 400 * time.Millisecond},
	}
	return &testApp{handler: a.Handler(), sessions: sessions, clock: clock, tokens: tokens}
}

type request struct {
	method string
	path   string
	body   string
	token  string
}

func (ta *testApp) do(t *testing.T, cookie *http.Cookie, req request) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(req.method, req.path, strings.NewReader(req.body))
	if cookie != nil {
		r.AddCookie(cookie)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	w := httptest.NewRecorder()
	ta.handler.ServeHTTP(w, r)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == common.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func decodeSummary(t *testing.T, w *httptest.ResponseRecorder) board.Summary {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s board.Summary
	require.NoError(t, jsoncompat.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func TestSearchFlow(t *testing.T) {
	ta := newTestApp(t)

	w := ta.do(t, nil, request{method: http.MethodGet, path: "/board?wait=1"})
	cookie := sessionCookie(t, w)
	s := decodeSummary(t, w)
	require.Len(t, s.Views, 2)
	assert.Equal(t, 0, s.ActiveFilterCount)

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/board/search?wait=1", body: `{"title":"go","location":"Hanoi"}`})
	s = decodeSummary(t, w)
	assert.Equal(t, "location=Hanoi&title=go", s.Query)
	for _, v := range s.Views {
		require.Len(t, v.Items, 2, "source %s", v.Source)
		assert.Equal(t, "go", v.Items[0].Title)
		assert.True(t, v.ShowControls)
	}
	assert.Equal(t, 1, ta.sessions.len())

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/board/search?wait=1", body: `{"title":"nothing"}`})
	s = decodeSummary(t, w)
	for _, v := range s.Views {
		assert.Empty(t, v.Items)
		assert.False(t, v.ShowControls)
	}
}

func TestPageAndFilterValidation(t *testing.T) {
	ta := newTestApp(t)
	cookie := sessionCookie(t, ta.do(t, nil, request{method: http.MethodGet, path: "/board"}))

	w := ta.do(t, cookie, request{method: http.MethodPost, path: "/board/page", body: `{"source":"elsewhere","page":2}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/board/page?wait=1", body: `{"source":"primary","page":2}`})
	s := decodeSummary(t, w)
	assert.Equal(t, "page=2", s.Query)

	w = ta.do(t, cookie, request{method: http.MethodPut, path: "/board/filters", body: `{"salaryMin":4000,"salaryMax":100}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "salary")

	w = ta.do(t, cookie, request{method: http.MethodPut, path: "/board/filters?wait=1", body: `{"levels":["senior"],"salaryMin":0,"salaryMax":5000}`})
	s = decodeSummary(t, w)
	assert.Equal(t, "", s.Query)
	assert.Equal(t, 1, s.ActiveFilterCount)
}

func TestFacetsLoadAndToggle(t *testing.T) {
	ta := newTestApp(t)
	cookie := sessionCookie(t, ta.do(t, nil, request{method: http.MethodGet, path: "/board"}))

	w := ta.do(t, cookie, request{method: http.MethodPost, path: "/board/facets/levels/senior"})
	assert.Equal(t, 0, decodeSummary(t, w).ActiveFilterCount)

	w = ta.do(t, cookie, request{method: http.MethodGet, path: "/facets"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"senior"`)

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/board/facets/levels/senior"})
	assert.Equal(t, 1, decodeSummary(t, w).ActiveFilterCount)

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/board/facets/colors/red"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookmarkRequiresCandidate(t *testing.T) {
	ta := newTestApp(t)
	cookie := sessionCookie(t, ta.do(t, nil, request{method: http.MethodGet, path: "/board"}))

	w := ta.do(t, cookie, request{method: http.MethodPost, path: "/bookmarks/job-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login")

	employer, err := ta.tokens.Issue(auth.Identity{Username: "acme", Role: auth.RoleEmployer})
	require.NoError(t, err)
	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/bookmarks/job-1", token: employer})
	assert.Equal(t, http.StatusForbidden, w.Code)

	candidate, err := ta.tokens.Issue(auth.Identity{Username: "ann", Role: auth.RoleCandidate})
	require.NoError(t, err)
	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/bookmarks/job-1", token: candidate})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"jobId":"job-1","bookmarked":true}`, w.Body.String())

	w = ta.do(t, cookie, request{method: http.MethodPost, path: "/bookmarks/job-1", token: candidate})
	assert.JSONEq(t, `{"jobId":"job-1","bookmarked":false}`, w.Body.String())
}

func TestSignOutHidesSavedJobs(t *testing.T) {
	ta := newTestApp(t)
	cookie := sessionCookie(t, ta.do(t, nil, request{method: http.MethodGet, path: "/board"}))
	candidate, err := ta.tokens.Issue(auth.Identity{Username: "ann", Role: auth.RoleCandidate})
	require.NoError(t, err)

	w := ta.do(t, cookie, request{method: http.MethodPost, path: "/bookmarks/job-1", token: candidate})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := ta.sessions.get(cookie.Value).board.Bookmarks()
	require.True(t, saved.IsBookmarked("job-1"))

	ta.do(t, cookie, request{method: http.MethodGet, path: "/board"})
	assert.Nil(t, ta.sessions.get(cookie.Value).Identity())
	assert.False(t, saved.IsBookmarked("job-1"))
	assert.Empty(t, saved.Snapshot())
	assert.False(t, saved.Loaded())

	ta.do(t, cookie, request{method: http.MethodGet, path: "/board", token: candidate})
	assert.True(t, saved.IsBookmarked("job-1"))
}

func TestPlacePopup(t *testing.T) {
	ta := newTestApp(t)
	w := ta.do(t, nil, request{
		method: http.MethodPost,
		path:   "/popup/place",
		body:   `{"trigger":{"top":100,"left":900,"width":300,"height":80},"viewport":{"width":1200,"height":800},"size":{"width":360,"height":240}}`,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var g placeResponse
	require.NoError(t, jsoncompat.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, popup.SideLeft, g.Side)
	assert.Equal(t, "top right", g.TransformOrigin)
	assert.Equal(t, int64(250), g.OpenDelayMs)
	assert.Equal(t, int64(400), g.CloseDelayMs)
	assert.Equal(t, 0, ta.sessions.len())
}

func TestIdleSessionsAreReaped(t *testing.T) {
	ta := newTestApp(t)
	first := sessionCookie(t, ta.do(t, nil, request{method: http.MethodGet, path: "/board"}))

	ta.clock.Advance(45 * time.Second)
	ta.do(t, nil, request{method: http.MethodGet, path: "/board"})
	require.Equal(t, 2, ta.sessions.len())

	ta.clock.Advance(30 * time.Second)
	ta.do(t, first, request{method: http.MethodGet, path: "/board"})
	assert.Equal(t, 0, ta.sessions.reap())

	ta.clock.Advance(45 * time.Second)
	assert.Equal(t, 1, ta.sessions.reap())
	assert.Equal(t, 1, ta.sessions.len())
}
