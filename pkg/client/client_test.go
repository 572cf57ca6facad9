package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJson(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, jsoncompat.NewEncoder(w).Encode(v))
}

func TestFetchEncodesParams(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJson(t, w, types.JobCollection{
			Items:      []types.Job{{Id: "j1", Title: "Go developer"}},
			Pagination: types.Pagination{Page: 2, PageSize: 10, Total: 11},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("secret"))
	result, err := c.Fetch(context.Background(), types.SourceSecondary, types.FetchParams{
		Title:    "go",
		Levels:   []string{"junior", "senior"},
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "/jobs/top-cv", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "go", q.Get("title"))
	assert.Equal(t, []string{"junior", "senior"}, q["levels"])
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("pageSize"))
	assert.False(t, q.Has("location"))
	assert.False(t, q.Has("salaryMin"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(RequestIdHeader))

	require.Len(t, result.Items, 1)
	assert.Equal(t, "j1", result.Items[0].Id)
	assert.Equal(t, 2, result.Pagination.TotalPages())
}

func TestFetchReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), types.SourcePrimary, types.FetchParams{Page: 1, PageSize: 10})

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadGateway, status.Code)
	assert.Equal(t, "/jobs", status.Path)
	assert.Contains(t, err.Error(), "backend down")
}

func TestFetchHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL).Fetch(ctx, types.SourcePrimary, types.FetchParams{Page: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFacetOptionsRoutes(t *testing.T) {
	paths := make(chan string, len(types.FacetKeys))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		writeJson(t, w, []types.Option{{Id: "1", Name: "One"}})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	for _, key := range types.FacetKeys {
		options, err := c.FacetOptions(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, []types.Option{{Id: "1", Name: "One"}}, options)
	}
	close(paths)

	var seen []string
	for p := range paths {
		seen = append(seen, p)
	}
	assert.Equal(t, []string{"/levels", "/working-models", "/job-domains", "/company-industries"}, seen)

	_, err := c.FacetOptions(context.Background(), types.FacetKey("colors"))
	assert.Error(t, err)
}

func TestSavedJobs(t *testing.T) {
	saved := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/saved-jobs":
			refs := []types.SavedJobRef{}
			for id := range saved {
				refs = append(refs, types.SavedJobRef{JobId: id})
			}
			writeJson(t, w, refs)
		case r.Method == http.MethodPost:
			saved[r.URL.Path[len("/saved-jobs/"):]] = true
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete:
			delete(saved, r.URL.Path[len("/saved-jobs/"):])
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()
	require.NoError(t, c.AddSaved(ctx, "j1"))
	require.NoError(t, c.AddSaved(ctx, "j2"))
	require.NoError(t, c.RemoveSaved(ctx, "j1"))

	refs, err := c.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "j2", refs[0].JobId)
}
