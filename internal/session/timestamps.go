package session

import (
	"sync/atomic"
	"time"
)

// timestampSource hands out record timestamps in Unix milliseconds. Every
// value is strictly greater than any value handed out or observed before,
// so it is shared by all controllers of a process.
type timestampSource struct {
	clock func() time.Time
	last  atomic.Int64
}

func newTimestampSource(clock func() time.Time) *timestampSource {
	return &timestampSource{clock: clock}
}

// next reserves max(now, last+1).
func (t *timestampSource) next() int64 {
	for {
		last := t.last.Load()
		ts := max(t.clock().UnixMilli(), last+1)
		if t.last.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

// observe raises the floor to ts, used for timestamps found in storage.
func (t *timestampSource) observe(ts int64) {
	for {
		last := t.last.Load()
		if ts <= last || t.last.CompareAndSwap(last, ts) {
			return
		}
	}
}
