package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler lets keep out of every consecutive events through.
// every == 0 disables sampling.
type ratioSampler struct {
	mu    sync.Mutex
	keep  int
	every int
	seen  int
}

func (s *ratioSampler) Set(keep, every int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep <= 0 || every <= 0 {
		keep, every = 0, 0
	}
	s.keep, s.every, s.seen = min(keep, every), every, 0
}

func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.every == 0 {
		return true
	}
	s.seen = s.seen%s.every + 1
	return s.seen <= s.keep
}

// parseRatio accepts "keep/every" or a bare "every" (meaning 1/every).
// "0" disables sampling. ok is false for anything unparsable.
func parseRatio(raw string) (keep, every int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, false
	}
	if a, b, found := strings.Cut(raw, "/"); found {
		k, err1 := strconv.Atoi(strings.TrimSpace(a))
		e, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil || k < 0 || e < 0 {
			return 0, 0, false
		}
		return k, e, true
	}
	e, err := strconv.Atoi(raw)
	if err != nil || e < 0 {
		return 0, 0, false
	}
	if e == 0 {
		return 0, 0, true
	}
	return 1, e, true
}
