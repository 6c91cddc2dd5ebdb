package observability

import "sync"

// Inmem keeps the last max observations in memory plus running totals.
// Enough for a single-process gateway; swap for a real exporter if one
// ever gets wired in.
type Inmem struct {
	mu     sync.Mutex
	last   []any
	max    int
	totals struct {
		cacheHits, cacheMiss int
		tokenRefreshes       int
		mailsSent, mailsLost int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(struct {
		Kind          string
		Method, Route string
		Status        int
		Dur           float64
	}{"http", method, route, status, durMs})
}

func (m *Inmem) ObserveUpstream(op string, durMs float64, ok bool) {
	m.push(struct {
		Kind string
		Op   string
		Dur  float64
		OK   bool
	}{"upstream", op, durMs, ok})
}

func (m *Inmem) ObserveMail(sent bool, attempts int) {
	m.mu.Lock()
	if sent {
		m.totals.mailsSent++
	} else {
		m.totals.mailsLost++
	}
	m.mu.Unlock()
	m.push(struct {
		Kind     string
		Sent     bool
		Attempts int
	}{"mail", sent, attempts})
}

func (m *Inmem) IncTokenRefresh() {
	m.mu.Lock()
	m.totals.tokenRefreshes++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}
