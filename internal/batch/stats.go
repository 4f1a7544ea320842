package batch

import "sync/atomic"

// Stats counts batch activity across all requests served by a Runner.
type Stats struct {
	requests atomic.Int64
	outputs  atomic.Int64
	failures atomic.Int64
	degraded atomic.Int64
}

type StatsSnapshot struct {
	Requests int64 `json:"requests"`
	Outputs  int64 `json:"outputs"`
	Failures int64 `json:"failures"`
	Degraded int64 `json:"degraded"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests: s.requests.Load(),
		Outputs:  s.outputs.Load(),
		Failures: s.failures.Load(),
		Degraded: s.degraded.Load(),
	}
}
