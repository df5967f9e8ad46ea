package domain

// OpsMetrics is the operational snapshot served at GET /v1/metrics/ops. It is
// derived from the Prometheus counters, not tracked separately.
type OpsMetrics struct {
	TotalRequests      int64            `json:"total_requests"`
	ErrorRate          float64          `json:"error_rate"`
	CacheHitRate       float64          `json:"cache_hit_rate"`
	UploadsTotal       int64            `json:"uploads_total"`
	ValidationOutcomes map[string]int64 `json:"validation_outcomes"`
	Period             string           `json:"period"`
}
