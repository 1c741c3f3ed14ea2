package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// ProgressRecorder collects progress events and chunk-size warnings.
// It is safe for concurrent use.
type ProgressRecorder struct {
	mu       sync.Mutex
	events   []s3types.ProgressEvent
	warnings []s3types.ChunkSizeAdjusted
}

// Progress is an s3types.ProgressHandler that records the event.
func (r *ProgressRecorder) Progress(ev s3types.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Warning is an s3types.WarningHandler that records the warning.
func (r *ProgressRecorder) Warning(w s3types.ChunkSizeAdjusted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

// Events returns a copy of the recorded progress events.
func (r *ProgressRecorder) Events() []s3types.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]s3types.ProgressEvent(nil), r.events...)
}

// Percents returns the reported percentages in arrival order.
func (r *ProgressRecorder) Percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Percent)
	}
	return out
}

// Warnings returns a copy of the recorded warnings.
func (r *ProgressRecorder) Warnings() []s3types.ChunkSizeAdjusted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]s3types.ChunkSizeAdjusted(nil), r.warnings...)
}
