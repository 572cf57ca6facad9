// Package tracking reports what users search for and save.
package tracking

import (
	"github.com/google/uuid"
	"github.com/matst80/jobboard/pkg/types"
)

const (
	EventSearch   uint16 = 1
	EventBookmark uint16 = 6
)

type Tracking interface {
	TrackSearch(sessionId string, params types.FetchParams, result types.Pagination) error
	TrackBookmark(sessionId string, jobId string, saved bool) error
}

func NewSessionId() string {
	return uuid.NewString()
}

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
}

type SearchEvent struct {
	*BaseEvent
	*types.FetchParams
	NumberOfResults int `json:"noi"`
	TotalPages      int `json:"total_pages"`
}

type BookmarkEvent struct {
	*BaseEvent
	JobId string `json:"job_id"`
	Saved bool   `json:"saved"`
}

func NewSearchEvent(sessionId, context string, params types.FetchParams, result types.Pagination) *SearchEvent {
	return &SearchEvent{
		BaseEvent:       &BaseEvent{Event: EventSearch, SessionId: sessionId, Context: context},
		FetchParams:     &params,
		NumberOfResults: result.Total,
		TotalPages:      result.TotalPages(),
	}
}

func NewBookmarkEvent(sessionId, context, jobId string, saved bool) *BookmarkEvent {
	return &BookmarkEvent{
		BaseEvent: &BaseEvent{Event: EventBookmark, SessionId: sessionId, Context: context},
		JobId:     jobId,
		Saved:     saved,
	}
}
