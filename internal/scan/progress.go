package scan

import "time"

// Progress is a point-in-time view of a running scan, recomputed after
// every completed host.
type Progress struct {
	Scanned    int
	Total      int
	Percent    float64
	RatePerSec float64
	ETASeconds float64
	Elapsed    time.Duration
}

type progressTracker struct {
	total int
	start time.Time
}

func newProgressTracker(total int) *progressTracker {
	return &progressTracker{total: total, start: time.Now()}
}

func (t *progressTracker) snapshot(scanned int) Progress {
	p := Progress{
		Scanned: scanned,
		Total:   t.total,
		Elapsed: time.Since(t.start),
	}
	if t.total > 0 {
		p.Percent = 100 * float64(scanned) / float64(t.total)
	}
	secs := p.Elapsed.Seconds()
	if secs > 0 && scanned > 0 {
		p.RatePerSec = float64(scanned) / secs
		p.ETASeconds = float64(t.total-scanned) / p.RatePerSec
	}
	return p
}
