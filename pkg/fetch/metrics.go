package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_fetch_issued_total",
		Help: "The total number of job fetches sent to the backend",
	}, []string{"source"})
	fetchStale = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_fetch_stale_total",
		Help: "The total number of fetch responses dropped because a newer request was issued",
	}, []string{"source"})
	fetchFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_fetch_failed_total",
		Help: "The total number of failed job fetches",
	}, []string{"source"})
	fetchDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_fetch_deduplicated_total",
		Help: "The total number of debounced triggers that matched the last issued request",
	}, []string{"source"})
)
