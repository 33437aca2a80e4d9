// Package bounds implements the memory monitor consulted between
// processing batches. Exceeding the limit is a hard stop: no partial
// results, no throttling.
package bounds

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrExceeded is the fatal bounds failure.
var ErrExceeded = errors.New("memory bounds exceeded")

// Monitor checks the process heap against a fixed ceiling. A nil
// monitor or a zero limit disables the check.
type Monitor struct {
	MaxHeapBytes uint64
}

// Check returns ErrExceeded (wrapped with the observed numbers) when the
// live heap is over the limit.
func (m *Monitor) Check() error {
	if m == nil || m.MaxHeapBytes == 0 {
		return nil
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > m.MaxHeapBytes {
		return fmt.Errorf("%w: heap %d bytes over limit %d", ErrExceeded, ms.HeapAlloc, m.MaxHeapBytes)
	}
	return nil
}
