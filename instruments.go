package crossdb

import "github.com/tarmac-project/crossdb/stmtcache"

type (
	// Counter is a monotonically increasing instrument.
	Counter = stmtcache.Counter

	// Gauge is an instrument that moves up and down.
	Gauge = stmtcache.Gauge
)

// Histogram records observations.
type Histogram interface {
	Observe(value float64)
}

// Instruments are optional metric handles updated by a Conn. Nil fields are
// skipped.
type Instruments struct {
	// CacheHits, CacheMisses and CacheEvictions track the statement cache.
	CacheHits      Counter
	CacheMisses    Counter
	CacheEvictions Counter

	// CacheEntries tracks the number of cached statements.
	CacheEntries Gauge

	// QueryErrors counts engine-reported failures.
	QueryErrors Counter

	// QueryDuration observes execution time in seconds.
	QueryDuration Histogram
}

func (i Instruments) queryError() {
	if i.QueryErrors != nil {
		i.QueryErrors.Inc()
	}
}

func (i Instruments) observe(seconds float64) {
	if i.QueryDuration != nil {
		i.QueryDuration.Observe(seconds)
	}
}
