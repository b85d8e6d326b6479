package vmpressure

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackUnpack(t *testing.T) {
	s, r := unpack(pack(0xdeadbeef, 0x12345678))
	assert.Equal(t, uint32(0xdeadbeef), s)
	assert.Equal(t, uint32(0x12345678), r)
}

func TestAccumulator_ConcurrentAddsNeverTear(t *testing.T) {
	var acc accumulator
	const workers, perWorker = 8, 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				acc.add(3, 1)
			}
		}()
	}
	wg.Wait()

	s, r := acc.drain()
	assert.Equal(t, uint32(workers*perWorker*3), s)
	assert.Equal(t, uint32(workers*perWorker), r)

	s, r = acc.peek()
	assert.Zero(t, s)
	assert.Zero(t, r)
}

func TestAccumulator_HalvesSaturateIndependently(t *testing.T) {
	var acc accumulator

	assert.Equal(t, uint32(1<<31), acc.add(1<<31, 1<<31))
	assert.Equal(t, uint32(math.MaxUint32), acc.add(1<<31, 1<<31))
	s, r := acc.peek()
	assert.Equal(t, uint32(math.MaxUint32), s)
	assert.Equal(t, uint32(math.MaxUint32), r, "reclaimed must not carry into scanned")

	acc.drain()
	acc.add(10, math.MaxUint32)
	acc.add(10, 7)
	s, r = acc.drain()
	assert.Equal(t, uint32(20), s)
	assert.Equal(t, uint32(math.MaxUint32), r)
}

func TestScore(t *testing.T) {
	cases := []struct {
		s, r uint32
		want uint32
	}{
		{100, 100, 0},
		{100, 0, 100},
		{512, 256, 50},
		{3, 1, 67},
		{10, 50, 0}, // reclaimed capped at scanned
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, score(tc.s, tc.r), "s=%d r=%d", tc.s, tc.r)
	}
}
