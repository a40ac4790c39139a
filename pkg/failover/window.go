package failover

import (
	"time"
)

// windowEntry is a single recorded outcome.
type windowEntry struct {
	at      time.Time
	failure bool
}

// slidingWindow keeps the ordered outcomes of the last span of time. It
// exists purely for failure-rate reporting and never drives admission
// decisions. Callers hold the owning breaker's lock; the window itself is
// not synchronized.
type slidingWindow struct {
	span    time.Duration
	entries []windowEntry
}

func newSlidingWindow(span time.Duration) *slidingWindow {
	return &slidingWindow{span: span}
}

// add records one outcome and prunes entries older than the span. Entries
// arrive in time order because records happen under the breaker lock.
func (w *slidingWindow) add(at time.Time, failure bool) {
	w.pruneBefore(at.Add(-w.span))
	w.entries = append(w.entries, windowEntry{at: at, failure: failure})
}

// pruneBefore drops entries older than cutoff, compacting in place.
func (w *slidingWindow) pruneBefore(cutoff time.Time) {
	i := 0
	for i < len(w.entries) && w.entries[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.entries, w.entries[i:])
	w.entries = w.entries[:n]
}

// rate returns failures divided by total entries inside the span ending at
// now, or 0.0 when the window is empty. The computation is non-destructive:
// pruning happens on record, reads only skip stale entries.
func (w *slidingWindow) rate(now time.Time) float64 {
	failures, total := w.counts(now)
	if total == 0 {
		return 0.0
	}
	return float64(failures) / float64(total)
}

// size returns the number of live entries inside the span ending at now.
func (w *slidingWindow) size(now time.Time) int {
	_, total := w.counts(now)
	return total
}

func (w *slidingWindow) counts(now time.Time) (failures, total int) {
	cutoff := now.Add(-w.span)
	for _, e := range w.entries {
		if e.at.Before(cutoff) {
			continue
		}
		total++
		if e.failure {
			failures++
		}
	}
	return failures, total
}

// reset discards all recorded outcomes.
func (w *slidingWindow) reset() {
	w.entries = w.entries[:0]
}
