package gateway

import (
	"sort"
	"sync"
	"time"
)

// Decision is the result of Tracker.CheckAndRecord.
type Decision struct {
	Allowed bool
	// Count is the repetition number of the checked call within the window,
	// including the call itself.
	Count int
	// Elapsed is the time since the first call still inside the window.
	Elapsed time.Duration
	Window  time.Duration
}

// Err returns a LoopDetectedError for a blocked decision, nil otherwise.
func (d Decision) Err(signature string) error {
	if d.Allowed {
		return nil
	}
	return &LoopDetectedError{
		Signature: signature,
		Count:     d.Count,
		Window:    d.Window,
		Elapsed:   d.Elapsed,
	}
}

// SignatureStats is one live record as reported by Tracker.Snapshot.
type SignatureStats struct {
	Signature string    `json:"signature"`
	Count     int       `json:"count"`
	FirstCall time.Time `json:"first_call"`
	LastCall  time.Time `json:"last_call"`
}

type callRecord struct {
	mu     sync.Mutex
	stamps []time.Time
	// dead is set once the record has been swept from the map.
	dead bool
}

// prune drops timestamps older than cutoff. Caller holds r.mu.
func (r *callRecord) prune(cutoff time.Time) {
	i := 0
	for i < len(r.stamps) && !r.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.stamps = append(r.stamps[:0], r.stamps[i:]...)
	}
}

// Tracker remembers recent call signatures and blocks a signature once it
// reaches the repetition threshold inside the trailing window.
type Tracker struct {
	window    time.Duration
	threshold int
	now       func() time.Time

	mu        sync.Mutex
	records   map[string]*callRecord
	lastSweep time.Time
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker. A threshold of 0 or less disables blocking.
func NewTracker(window time.Duration, threshold int, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		window:    window,
		threshold: threshold,
		now:       time.Now,
		records:   make(map[string]*callRecord),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.lastSweep = t.now()
	return t
}

// Window returns the configured window.
func (t *Tracker) Window() time.Duration { return t.window }

// Threshold returns the configured repetition threshold.
func (t *Tracker) Threshold() int { return t.threshold }

// Enabled reports whether loop detection is active.
func (t *Tracker) Enabled() bool { return t.threshold > 0 && t.window > 0 }

// CheckAndRecord classifies a call. Allowed calls are recorded, blocked calls
// are not, so a signature becomes callable again once old calls age out.
func (t *Tracker) CheckAndRecord(signature string) Decision {
	if !t.Enabled() {
		return Decision{Allowed: true, Count: 1, Window: t.window}
	}

	for {
		now := t.now()
		t.maybeSweep(now)

		rec := t.record(signature)
		rec.mu.Lock()
		if rec.dead {
			// Swept between lookup and lock; fetch the replacement.
			rec.mu.Unlock()
			continue
		}

		rec.prune(now.Add(-t.window))
		count := len(rec.stamps) + 1
		if len(rec.stamps) > 0 && count >= t.threshold {
			d := Decision{
				Allowed: false,
				Count:   count,
				Elapsed: now.Sub(rec.stamps[0]),
				Window:  t.window,
			}
			rec.mu.Unlock()
			return d
		}

		rec.stamps = append(rec.stamps, now)
		elapsed := now.Sub(rec.stamps[0])
		rec.mu.Unlock()
		return Decision{Allowed: true, Count: count, Elapsed: elapsed, Window: t.window}
	}
}

// Len returns the number of signatures currently held in memory.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Snapshot returns the signatures that still have calls inside the window,
// most recently used first.
func (t *Tracker) Snapshot() []SignatureStats {
	now := t.now()
	cutoff := now.Add(-t.window)

	t.mu.Lock()
	records := make(map[string]*callRecord, len(t.records))
	for sig, rec := range t.records {
		records[sig] = rec
	}
	t.mu.Unlock()

	stats := make([]SignatureStats, 0, len(records))
	for sig, rec := range records {
		rec.mu.Lock()
		rec.prune(cutoff)
		if len(rec.stamps) > 0 {
			stats = append(stats, SignatureStats{
				Signature: sig,
				Count:     len(rec.stamps),
				FirstCall: rec.stamps[0],
				LastCall:  rec.stamps[len(rec.stamps)-1],
			})
		}
		rec.mu.Unlock()
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].LastCall.Equal(stats[j].LastCall) {
			return stats[i].Signature < stats[j].Signature
		}
		return stats[i].LastCall.After(stats[j].LastCall)
	})
	return stats
}

// Sweep removes records whose calls have all left the window and returns how
// many were removed. CheckAndRecord calls it lazily, at most once per window.
func (t *Tracker) Sweep() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSweep = now
	return t.sweepLocked(now.Add(-t.window))
}

func (t *Tracker) record(signature string) *callRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[signature]
	if !ok {
		rec = &callRecord{}
		t.records[signature] = rec
	}
	return rec
}

func (t *Tracker) maybeSweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) < t.window {
		return
	}
	t.lastSweep = now
	t.sweepLocked(now.Add(-t.window))
}

// sweepLocked requires t.mu. Lock order is always tracker then record.
func (t *Tracker) sweepLocked(cutoff time.Time) int {
	removed := 0
	for sig, rec := range t.records {
		rec.mu.Lock()
		rec.prune(cutoff)
		if len(rec.stamps) == 0 {
			rec.dead = true
			delete(t.records, sig)
			removed++
		}
		rec.mu.Unlock()
	}
	return removed
}
