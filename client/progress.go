package client

import (
	"io"
	"sync/atomic"
)

// ProgressTracker observes a single in-flight upload at byte level. The
// UI polls Progress while the upload streams; an abandoned upload stops
// reporting entirely.
type ProgressTracker struct {
	total     int64
	read      atomic.Int64
	abandoned atomic.Bool
}

func NewProgressTracker(total int64) *ProgressTracker {
	return &ProgressTracker{total: total}
}

// Reader wraps the upload body so every read advances the tracker.
func (t *ProgressTracker) Reader(r io.Reader) io.Reader {
	return &progressReader{r: r, t: t}
}

// Progress reports 0-100. A zero-byte upload is complete as soon as its
// body has been consumed, so it reports 100 once any read happened.
func (t *ProgressTracker) Progress() int {
	if t.abandoned.Load() {
		return 0
	}

	if t.total <= 0 {
		return 100
	}

	p := int(t.read.Load() * 100 / t.total)
	if p > 100 {
		p = 100
	}
	return p
}

// Abandon stops progress reporting for an upload the user walked away
// from. The server side is not aborted.
func (t *ProgressTracker) Abandon() {
	t.abandoned.Store(true)
}

func (t *ProgressTracker) Abandoned() bool {
	return t.abandoned.Load()
}

type progressReader struct {
	r io.Reader
	t *ProgressTracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.t.read.Add(int64(n))
	}
	return n, err
}
