package attr

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterAttr(name string, v *atomic.Uint64, limit uint64) Attr {
	return Attr{
		Name: name,
		Get:  v.Load,
		Set: func(n uint64) error {
			if n > limit {
				return errors.New("over limit")
			}
			v.Store(n)
			return nil
		},
	}
}

func TestStoreAndShow(t *testing.T) {
	var v atomic.Uint64
	v.Store(185)
	s := NewSet()
	s.Register(counterAttr("shift_all", &v, 1000))

	out, err := s.Show("shift_all")
	require.NoError(t, err)
	assert.Equal(t, "185\n", out)

	require.NoError(t, s.Store("shift_all", " 200\n"))
	got, err := s.Get("shift_all")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got)
}

func TestStore_RejectsMalformedInput(t *testing.T) {
	var v atomic.Uint64
	v.Store(30)
	s := NewSet()
	s.Register(counterAttr("shift_cpu1", &v, 1000))

	for _, in := range []string{"", "abc", "-1", "1.5", "12abc", "99999999999"} {
		err := s.Store("shift_cpu1", in)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", in)
		assert.Equal(t, uint64(30), v.Load(), "prior value retained for %q", in)
	}
}

func TestStore_ValidationFailureKeepsValue(t *testing.T) {
	var v atomic.Uint64
	v.Store(4)
	s := NewSet()
	s.Register(counterAttr("max_units", &v, 8))

	err := s.Store("max_units", "9")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, uint64(4), v.Load())

	err = s.StoreUint("max_units", 1<<40)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUnknownAndReadOnly(t *testing.T) {
	s := NewSet()
	s.Register(Attr{Name: "platform_units", Get: func() uint64 { return 4 }})

	_, err := s.Show("nope")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.ErrorIs(t, s.Store("nope", "1"), ErrUnknown)
	assert.ErrorIs(t, s.Store("platform_units", "2"), ErrInvalid)
}

func TestBool(t *testing.T) {
	var on atomic.Bool
	s := NewSet()
	s.Register(Bool("touchplug", on.Load, on.Store))

	require.NoError(t, s.Store("touchplug", "1"))
	assert.True(t, on.Load())
	assert.ErrorIs(t, s.Store("touchplug", "2"), ErrInvalid)
	assert.True(t, on.Load())
	require.NoError(t, s.Store("touchplug", "0"))
	assert.False(t, on.Load())
}

func TestNamesAndSnapshot(t *testing.T) {
	var a, b atomic.Uint64
	a.Store(1)
	b.Store(2)
	s := NewSet()
	s.Register(counterAttr("b", &b, 10), counterAttr("a", &a, 10))

	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.Equal(t, map[string]uint64{"a": 1, "b": 2}, s.Snapshot())
}
