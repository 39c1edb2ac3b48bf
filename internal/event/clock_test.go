package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Tick_StrictlyIncreasing(t *testing.T) {
	clock := NewClock()

	assert.Equal(t, uint64(1), clock.Tick())
	assert.Equal(t, uint64(2), clock.Tick())
	assert.Equal(t, uint64(3), clock.Tick())
	assert.Equal(t, uint64(3), clock.Current())
}

func TestClock_NewClockAt_Resumes(t *testing.T) {
	clock := NewClockAt(41)

	assert.Equal(t, uint64(41), clock.Current())
	assert.Equal(t, uint64(42), clock.Tick())
}

func TestClock_Observe_AdvancesPastRemote(t *testing.T) {
	clock := NewClockAt(5)

	// Remote ahead of us: jump strictly past it.
	assert.Equal(t, uint64(11), clock.Observe(10))

	// Remote behind us: still advance locally.
	assert.Equal(t, uint64(12), clock.Observe(3))

	// Remote equal to us: strictly greater either way.
	assert.Equal(t, uint64(13), clock.Observe(12))
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock()

	const goroutines = 16
	const ticksEach = 1000

	seen := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			vals := make([]uint64, ticksEach)
			for i := 0; i < ticksEach; i++ {
				vals[i] = clock.Tick()
			}
			seen[g] = vals
		}()
	}
	wg.Wait()

	// Every value handed out exactly once.
	all := make(map[uint64]bool, goroutines*ticksEach)
	for _, vals := range seen {
		for _, v := range vals {
			assert.False(t, all[v], "clock value %d handed out twice", v)
			all[v] = true
		}
	}
	assert.Len(t, all, goroutines*ticksEach)
	assert.Equal(t, uint64(goroutines*ticksEach), clock.Current())
}
