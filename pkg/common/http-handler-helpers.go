package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/matst80/jobboard/pkg/common/jsoncompat"
)

// HttpError carries the status code a handler wants to answer with.
type HttpError struct {
	Code int
	Err  error
}

func (e *HttpError) Error() string { return e.Err.Error() }
func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, err error) error {
	return &HttpError{Code: code, Err: err}
}

type errorResponse struct {
	Error string `json:"error"`
}

func JsonHandler(fn func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId, _ := HandleSessionCookie(w, r)
		w.Header().Set("Content-Type", "application/json")

		err := fn(w, r, sessionId, jsoncompat.NewEncoder(w))
		if err != nil {
			code := http.StatusInternalServerError
			var httpErr *HttpError
			if errors.As(err, &httpErr) {
				code = httpErr.Code
			} else {
				log.Printf("Error handling request: %v", err)
			}
			w.WriteHeader(code)
			if encErr := jsoncompat.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); encErr != nil {
				log.Printf("failed to write error response: %v", encErr)
			}
		}
	}
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
