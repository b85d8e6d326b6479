package hotplug

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeUnits struct {
	mu     sync.Mutex
	online []bool
	fail   map[int]error
	calls  int
}

// newFakeUnits returns n units with the first active of them online.
func newFakeUnits(n, active int) *fakeUnits {
	f := &fakeUnits{online: make([]bool, n), fail: make(map[int]error)}
	for i := 0; i < active; i++ {
		f.online[i] = true
	}
	return f
}

func (f *fakeUnits) Count() int { return len(f.online) }

func (f *fakeUnits) Online(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return id >= 0 && id < len(f.online) && f.online[id]
}

func (f *fakeUnits) SetOnline(id int, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[id]; err != nil {
		return err
	}
	f.online[id] = on
	return nil
}

func (f *fakeUnits) set(id int, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[id] = on
}

func (f *fakeUnits) failOn(id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = err
}

func (f *fakeUnits) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, on := range f.online {
		if on {
			n++
		}
	}
	return n
}

type fakeLoad struct {
	mu  sync.Mutex
	v   int
	err error
}

func (f *fakeLoad) Load() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v, f.err
}

func (f *fakeLoad) set(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.v, f.err = v, nil
}

func (f *fakeLoad) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type staticRanker map[int]uint64

func (r staticRanker) IdleRank(id int) uint64 { return r[id] }

// newTestController builds a controller over fake units and a settable load
// with the fast path off unless the caller flips it.
func newTestController(t *testing.T, units *fakeUnits, tun Tunables) (*Controller, *fakeLoad) {
	t.Helper()
	load := &fakeLoad{}
	c, err := New(Config{
		Units:    units,
		Load:     load,
		Tunables: &tun,
		Switches: &Switches{Enabled: true},
	})
	require.NoError(t, err)
	return c, load
}

// tickWith sets the load and runs one tick.
func tickWith(c *Controller, load *fakeLoad, v int) {
	load.set(v)
	c.Tick()
}
