package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceService(t *testing.T) {
	t.Run("starts after the seeded value", func(t *testing.T) {
		seq := NewSequenceService(41)
		assert.EqualValues(t, 42, seq.Next())
		assert.EqualValues(t, 43, seq.Next())
	})

	t.Run("contract reference formatting", func(t *testing.T) {
		seq := NewSequenceService(0)
		assert.Equal(t, "CT-000001", seq.NextContractRef())
		assert.Equal(t, "CT-000002", seq.NextContractRef())
	})

	t.Run("concurrent callers never collide", func(t *testing.T) {
		seq := NewSequenceService(0)

		const workers = 8
		const perWorker = 100

		var mu sync.Mutex
		seen := make(map[uint64]bool, workers*perWorker)
		var wg sync.WaitGroup

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					n := seq.Next()
					mu.Lock()
					assert.False(t, seen[n], "duplicate sequence value %d", n)
					seen[n] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, workers*perWorker)
	})
}
