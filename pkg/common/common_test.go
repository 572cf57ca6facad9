package common

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	id, created := HandleSessionCookie(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, created)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	again, created := HandleSessionCookie(httptest.NewRecorder(), r)
	assert.False(t, created)
	assert.Equal(t, id, again)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "1234"})
	fresh, created := HandleSessionCookie(httptest.NewRecorder(), r)
	assert.True(t, created)
	assert.NotEqual(t, "1234", fresh)
}

func TestSessionCookieDomainHasNoPort(t *testing.T) {
	for host, want := range map[string]string{
		"localhost:8080":   "localhost",
		"jobs.example.com": "jobs.example.com",
		"[::1]:8080":       "::1",
	} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = host
		HandleSessionCookie(w, r)
		assert.Equal(t, want, cookieDomain(host))
		assert.NotContains(t, w.Header().Get("Set-Cookie"), ":8080", host)
	}
}

func TestJsonHandlerMapsErrors(t *testing.T) {
	h := JsonHandler(func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
		if r.URL.Query().Has("fail") {
			return NewHttpError(http.StatusBadRequest, errors.New("bad page"))
		}
		return enc.Encode(map[string]string{"session": sessionId})
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/?fail=1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad page"}`, w.Body.String())

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session")

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "http://localhost")
	h(w, r)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "http://localhost", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunUntilRunsHooksAndStops(t *testing.T) {
	server := NewServerWithTimeouts(&http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}, TimeoutConfig{ReadHeader: time.Second})
	assert.Equal(t, time.Second, server.ReadHeaderTimeout)

	stop := make(chan os.Signal, 1)
	var order []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		runUntil("test", TimeoutConfig{Shutdown: time.Second}, []*http.Server{server}, stop,
			func(context.Context) error { order = append(order, "first"); return nil },
			nil,
			func(context.Context) error { order = append(order, "second"); return errors.New("ignored") },
		)
	}()
	stop <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, []string{"first", "second"}, order)
}
