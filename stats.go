package vhttpd

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

var servedStatuses = []int{
	http.StatusOK,
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusMethodNotAllowed,
	http.StatusInternalServerError,
}

// stats counts answered requests per status. The map is built once and only
// the counters change afterwards.
type stats struct {
	served map[int]*atomic.Uint64
}

func newStats() *stats {
	s := &stats{served: make(map[int]*atomic.Uint64, len(servedStatuses))}
	for _, status := range servedStatuses {
		s.served[status] = new(atomic.Uint64)
	}
	return s
}

func (s *stats) record(status int) {
	if counter, ok := s.served[status]; ok {
		counter.Add(1)
	}
}

// StatsSnapshot is what the admin /stats endpoint reports.
type StatsSnapshot struct {
	CachedFiles   int               `json:"cached_files"`
	Served        map[string]uint64 `json:"served"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}

func (s *Server) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		Served:        make(map[string]uint64, len(servedStatuses)),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	for status, counter := range s.stats.served {
		snap.Served[strconv.Itoa(status)] = counter.Load()
	}
	if s.cache != nil {
		snap.CachedFiles = s.cache.Len()
	}
	return snap
}
