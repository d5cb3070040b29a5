// pools.go - zero buffer pool shared by concurrent allocations
package allocator

import (
	"sync"
	"sync/atomic"
)

// maxPooledBuffer is the largest buffer returned to the pool.
// Larger chunk buffers are dropped after use to avoid pinning memory.
const maxPooledBuffer = 256 << 20

// PoolMetrics tracks buffer pool usage statistics
type PoolMetrics struct {
	// GetCount tracks number of buffer requests
	GetCount uint64

	// PutCount tracks number of buffers returned to the pool
	PutCount uint64

	// SkipCount tracks buffers dropped because they exceeded maxPooledBuffer
	SkipCount uint64

	// Allocations tracks buffers that had to be freshly allocated
	Allocations uint64
}

type poolMetricsAtomic struct {
	GetCount    atomic.Uint64
	PutCount    atomic.Uint64
	SkipCount   atomic.Uint64
	Allocations atomic.Uint64
}

var (
	poolMetrics poolMetricsAtomic

	// zeroPool holds zero-filled buffers. Buffers are only ever read from,
	// so they never need clearing.
	zeroPool = sync.Pool{}
)

// GetPoolMetrics returns a copy of current pool metrics
func GetPoolMetrics() PoolMetrics {
	return PoolMetrics{
		GetCount:    poolMetrics.GetCount.Load(),
		PutCount:    poolMetrics.PutCount.Load(),
		SkipCount:   poolMetrics.SkipCount.Load(),
		Allocations: poolMetrics.Allocations.Load(),
	}
}

// getZeroBuffer returns a zero-filled buffer of exactly size bytes
func getZeroBuffer(size int) *[]byte {
	poolMetrics.GetCount.Add(1)

	if buf, ok := zeroPool.Get().(*[]byte); ok && cap(*buf) >= size {
		*buf = (*buf)[:size]
		return buf
	}

	poolMetrics.Allocations.Add(1)
	buf := make([]byte, size)
	return &buf
}

// putZeroBuffer returns a buffer to the pool
func putZeroBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) > maxPooledBuffer {
		poolMetrics.SkipCount.Add(1)
		return
	}
	poolMetrics.PutCount.Add(1)
	*buf = (*buf)[:cap(*buf)]
	zeroPool.Put(buf)
}
