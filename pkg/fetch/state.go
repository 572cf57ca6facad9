// Package fetch debounces criteria changes into one outbound request per source and applies
// only the newest response.
package fetch

import (
	"time"

	"github.com/matst80/jobboard/pkg/types"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Request is an issued fetch, identified by its per-source sequence number.
type Request struct {
	Seq    uint64
	Params types.FetchParams
}

// SourceState is the complete state of one source. All transitions are pure.
type SourceState struct {
	Status     Status
	Collection types.JobCollection
	Err        error
	Seq        uint64
	Issued     *types.FetchParams
	Pending    *types.FetchParams
	Deadline   time.Time
}

func NewSourceState() SourceState {
	return SourceState{Status: StatusIdle}
}

// Debouncing reports whether a trigger is waiting for its quiet period.
func (s SourceState) Debouncing() bool {
	return s.Pending != nil
}

// Trigger records params and pushes the deadline out by delay.
func (s SourceState) Trigger(params types.FetchParams, now time.Time, delay time.Duration) SourceState {
	p := params
	s.Pending = &p
	s.Deadline = now.Add(delay)
	return s
}

// Fire issues the pending params once the deadline has passed. It returns nil when there is
// nothing to issue yet, or when the params equal a request that is loading or already applied.
func (s SourceState) Fire(now time.Time) (SourceState, *Request, bool) {
	if s.Pending == nil || now.Before(s.Deadline) {
		return s, nil, false
	}
	params := *s.Pending
	s.Pending = nil
	if s.Issued != nil && s.Issued.Equal(params) && (s.Status == StatusLoading || s.Status == StatusSucceeded) {
		return s, nil, true
	}
	s.Seq++
	s.Issued = &params
	s.Status = StatusLoading
	return s, &Request{Seq: s.Seq, Params: params}, false
}

// Resolve applies a response. Responses to anything but the latest request are dropped and
// applied is false. A failure keeps the previous collection.
func (s SourceState) Resolve(seq uint64, result types.JobCollection, err error) (next SourceState, applied bool) {
	if seq != s.Seq || s.Status != StatusLoading {
		return s, false
	}
	if err != nil {
		s.Status = StatusFailed
		s.Err = err
		return s, true
	}
	s.Status = StatusSucceeded
	s.Err = nil
	s.Collection = result
	return s, true
}
