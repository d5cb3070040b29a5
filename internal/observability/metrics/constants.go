// Package metrics provides the Prometheus collectors for filetools.
package metrics

// Histogram bucket parameters
const (
	// BucketStart1ms is the first bucket for fast operations
	BucketStart1ms = 0.001
	// BucketStart100ms is the first bucket for file writes
	BucketStart100ms = 0.1
	// BucketFactor2 doubles each bucket
	BucketFactor2 = 2
	// BucketCount10 spans roughly three orders of magnitude
	BucketCount10 = 10
	// BucketCount12 spans roughly four orders of magnitude
	BucketCount12 = 12
)

// Namespace prefixes every metric name
const Namespace = "filetools"
