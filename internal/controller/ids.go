package controller

import "sync/atomic"

// IDSource hands out correlation ids. Ids start at 1 and strictly increase.
// Polls and operator commands share one source.
type IDSource struct {
	last atomic.Uint64
}

// Next allocates the next id.
func (s *IDSource) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently allocated id, or 0.
func (s *IDSource) Last() uint64 {
	return s.last.Load()
}
