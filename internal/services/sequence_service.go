package services

import (
	"fmt"
	"sync/atomic"
)

// SequenceService issues process-wide monotonically increasing reference
// numbers for generated contract documents. The counter starts at zero so
// the first issued number is 1; on uint64 overflow it wraps and numbering
// restarts from 1. Ownership lives here rather than in a mutable package
// variable so the initial value can be seeded from storage.
type SequenceService interface {
	Next() uint64
	NextContractRef() string
}

type sequenceService struct {
	counter atomic.Uint64
}

// NewSequenceService creates a sequence starting after the given last-used
// value.
func NewSequenceService(lastUsed uint64) SequenceService {
	s := &sequenceService{}
	s.counter.Store(lastUsed)
	return s
}

func (s *sequenceService) Next() uint64 {
	return s.counter.Add(1)
}

// NextContractRef formats the next sequence value as a contract reference.
func (s *sequenceService) NextContractRef() string {
	return fmt.Sprintf("CT-%06d", s.Next())
}
