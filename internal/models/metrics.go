package models

import "time"

// SystemMetrics is a point-in-time digest of the service instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreQueryCount          uint64    `json:"store_query_count"`
	AverageStoreQueryMs      float64   `json:"average_store_query_ms"`
	BatchesCommitted         uint64    `json:"batches_committed"`
	BatchesFailed            uint64    `json:"batches_failed"`
	RowsCommitted            uint64    `json:"rows_committed"`
	ActiveSessions           int       `json:"active_sessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
