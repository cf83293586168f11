package service

import "time"

// Metrics defines the interface for collecting business metrics.
// This abstraction keeps the application layer independent of the specific
// monitoring implementation.
type Metrics interface {
	// RecordEventConsumed records one classified content event.
	RecordEventConsumed(outcome string)

	// RecordFlush records one transaction-end handoff to the cache driver.
	RecordFlush(toUpdate, toRemove int, duration time.Duration)

	// RecordInvalidation records the outcome of one URL invalidation chain.
	RecordInvalidation(success bool)

	// RecordRenewal records the outcome of one URL renewal.
	RecordRenewal(success bool)

	// RecordPurgeRequest records one operator-initiated purge request.
	RecordPurgeRequest(urls int)
}
