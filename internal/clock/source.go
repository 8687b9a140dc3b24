package clock

import (
	"sync"
	"time"
)

// Source delivers wall-clock readings to a runner.
type Source interface {
	C() <-chan time.Time
	Stop()
}

type tickerSource struct {
	ticker *time.Ticker
}

// NewTicker returns a Source backed by time.Ticker.
func NewTicker(interval time.Duration) Source {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &tickerSource{ticker: time.NewTicker(interval)}
}

func (s *tickerSource) C() <-chan time.Time { return s.ticker.C }
func (s *tickerSource) Stop()               { s.ticker.Stop() }

// Manual is a Source driven by the caller, for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
	ch  chan time.Time
}

// NewManual creates a manual source starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, ch: make(chan time.Time)}
}

func (m *Manual) C() <-chan time.Time { return m.ch }

func (m *Manual) Stop() {}

// Now returns the manual source's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves time forward by d and delivers the reading. It blocks until
// the reading is received.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()
	m.ch <- now
}
