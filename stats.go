package swapicache

import "sync"

// StatsSnapshot is a point-in-time copy of the usage counters.
type StatsSnapshot struct {
	RequestsCompleted int64 `json:"requests_completed"`
	ErrorsObserved    int64 `json:"errors"`
	CumulativeBytes   int64 `json:"data_size"`
	CacheSize         int   `json:"cache_size"`
}

// Stats aggregates usage counters for a Client. Counters only grow.
// It is safe for concurrent use; the zero value is ready to use.
type Stats struct {
	mu                sync.Mutex
	requestsCompleted int64
	errorsObserved    int64
	cumulativeBytes   int64
	cacheSize         int
}

// NewStats returns an empty counter set.
func NewStats() *Stats {
	return &Stats{}
}

// RecordSuccess counts one completed remote request of the given
// serialized size. cacheSize is the store length observed after the write;
// the store never shrinks, so an observation older than the recorded size is
// ignored.
func (s *Stats) RecordSuccess(bytes int, cacheSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestsCompleted++
	s.cumulativeBytes += int64(bytes)
	s.raiseCacheSize(cacheSize)
}

func (s *Stats) setCacheSize(cacheSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raiseCacheSize(cacheSize)
}

// raiseCacheSize must be called with s.mu held.
func (s *Stats) raiseCacheSize(cacheSize int) {
	if cacheSize > s.cacheSize {
		s.cacheSize = cacheSize
	}
}

// RecordError counts one failed remote request.
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorsObserved++
}

// Snapshot returns the counters as of this instant.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		RequestsCompleted: s.requestsCompleted,
		ErrorsObserved:    s.errorsObserved,
		CumulativeBytes:   s.cumulativeBytes,
		CacheSize:         s.cacheSize,
	}
}
