package observability

// Metrics is the gateway's instrumentation surface. External to business
// logic: the orchestrator reports outcomes, it never branches on them.
type Metrics interface {
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveUpstream(op string, durMs float64, ok bool)
	ObserveMail(sent bool, attempts int)
	IncTokenRefresh()
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveUpstream(string, float64, bool)    {}
func (Noop) ObserveMail(bool, int)                    {}
func (Noop) IncTokenRefresh()                         {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}
