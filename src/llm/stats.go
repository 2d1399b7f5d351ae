package llm

import "sync"

// Stats counts completion outcomes per provider across the process lifetime.
type Stats struct {
	mu       sync.Mutex
	requests map[string]int64
	failures map[string]int64
}

func NewStats() *Stats {
	return &Stats{
		requests: make(map[string]int64),
		failures: make(map[string]int64),
	}
}

func (s *Stats) RecordSuccess(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[provider]++
}

func (s *Stats) RecordFailure(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[provider]++
	s.failures[provider]++
}

// Snapshot returns per-provider totals plus an aggregate under "total".
func (s *Stats) Snapshot() map[string]map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]int64, len(s.requests)+1)
	var totalReq, totalFail int64
	for provider, req := range s.requests {
		fail := s.failures[provider]
		out[provider] = map[string]int64{
			"requests": req,
			"failures": fail,
			"success":  req - fail,
		}
		totalReq += req
		totalFail += fail
	}
	out["total"] = map[string]int64{
		"requests": totalReq,
		"failures": totalFail,
		"success":  totalReq - totalFail,
	}
	return out
}
