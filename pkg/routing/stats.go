package routing

import (
	"sync"
	"sync/atomic"
)

// Stats tracks process-wide gateway counters using atomic operations.
// All counters are updated lock-free on the request path.
type Stats struct {
	// totalRequests counts every admitted chat request.
	totalRequests atomic.Int64

	// successfulRequests counts requests whose upstream exchange was
	// dispatched or completed successfully.
	successfulRequests atomic.Int64

	// failedRequests counts requests that failed before or during the
	// upstream exchange.
	failedRequests atomic.Int64

	// providerUsage tracks how many requests each provider received.
	providerUsage sync.Map // map[string]*atomic.Int64
}

// NewStats creates a zeroed counter set.
func NewStats() *Stats {
	return &Stats{}
}

// RecordRequest increments the total request counter.
func (s *Stats) RecordRequest() {
	s.totalRequests.Add(1)
}

// RecordSuccess increments the successful request counter.
func (s *Stats) RecordSuccess() {
	s.successfulRequests.Add(1)
}

// RecordFailure increments the failed request counter.
func (s *Stats) RecordFailure() {
	s.failedRequests.Add(1)
}

// RecordProviderUse increments the usage counter for a provider.
func (s *Stats) RecordProviderUse(providerName string) {
	val, _ := s.providerUsage.LoadOrStore(providerName, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

// Snapshot is a point-in-time copy of the counters, safe to read and
// marshal without further synchronization.
type Snapshot struct {
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	ProviderUsage      map[string]int64 `json:"provider_usage"`
}

// Snapshot returns a point-in-time snapshot of the statistics.
func (s *Stats) Snapshot() Snapshot {
	usage := make(map[string]int64)
	s.providerUsage.Range(func(key, value interface{}) bool {
		usage[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	return Snapshot{
		TotalRequests:      s.totalRequests.Load(),
		SuccessfulRequests: s.successfulRequests.Load(),
		FailedRequests:     s.failedRequests.Load(),
		ProviderUsage:      usage,
	}
}

// Reset resets all counters to zero.
func (s *Stats) Reset() {
	s.totalRequests.Store(0)
	s.successfulRequests.Store(0)
	s.failedRequests.Store(0)

	s.providerUsage.Range(func(key, value interface{}) bool {
		s.providerUsage.Delete(key)
		return true
	})
}
