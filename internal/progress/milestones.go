// Package progress tracks percentage milestones of a multipart upload.
package progress

import "sync"

// Tracker maps completed-part counts to the 10%..90% boundaries of an upload.
//
// Boundary p lands on part floor(totalParts*p/100). When several boundaries
// collapse onto the same part the lowest one is reported; a boundary that
// lands on part 0 is never reported. Each count reports at most once, so each
// boundary is reported at most once. Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	byPart   map[int]int
	reported map[int]bool
}

// NewTracker creates a Tracker for an upload of totalParts parts.
func NewTracker(totalParts int) *Tracker {
	byPart := make(map[int]int, 9)
	for pct := 10; pct <= 90; pct += 10 {
		part := totalParts * pct / 100
		if _, taken := byPart[part]; part > 0 && !taken {
			byPart[part] = pct
		}
	}
	return &Tracker{
		byPart:   byPart,
		reported: make(map[int]bool, len(byPart)),
	}
}

// Complete records that completed parts are done and returns the percentage to
// report, if this count lands on a boundary not reported before.
func (t *Tracker) Complete(completed int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pct, ok := t.byPart[completed]
	if !ok || t.reported[completed] {
		return 0, false
	}
	t.reported[completed] = true
	return pct, true
}
