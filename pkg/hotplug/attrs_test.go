package hotplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/revshift/pkg/attr"
)

func TestRegisterAttrs(t *testing.T) {
	c, _ := newTestController(t, newFakeUnits(4, 1), DefaultTunables(4))
	set := attr.NewSet()
	c.RegisterAttrs(set)

	assert.Contains(t, set.Names(), AttrShiftAll)
	assert.Len(t, set.Names(), 14)

	require.NoError(t, set.Store(AttrShiftAll, "200\n"))
	assert.Equal(t, uint32(200), c.Tunables().ShiftAll)

	v, err := set.Show(AttrShiftAll)
	require.NoError(t, err)
	assert.Equal(t, "200\n", v)

	v, err = set.Show(AttrPlatformUnits)
	require.NoError(t, err)
	assert.Equal(t, "4\n", v)
}

func TestRegisterAttrs_RejectsInvalid(t *testing.T) {
	c, _ := newTestController(t, newFakeUnits(4, 1), DefaultTunables(4))
	set := attr.NewSet()
	c.RegisterAttrs(set)

	for _, tc := range []struct{ name, value string }{
		{AttrMaxUnits, "5"},
		{AttrMinUnits, "0"},
		{AttrMinUnits, "9"},
		{AttrSampleTimeMs, "0"},
		{AttrShiftAll, "abc"},
		{AttrShiftAll, "-1"},
		{AttrEnabled, "2"},
		{AttrPlatformUnits, "8"},
	} {
		err := set.Store(tc.name, tc.value)
		assert.ErrorIs(t, err, attr.ErrInvalid, "%s=%s", tc.name, tc.value)
	}
	assert.Equal(t, DefaultTunables(4), c.Tunables(), "rejected stores leave values untouched")
}

func TestRegisterAttrs_Switches(t *testing.T) {
	c, _ := newTestController(t, newFakeUnits(4, 1), DefaultTunables(4))
	set := attr.NewSet()
	c.RegisterAttrs(set)

	require.NoError(t, set.Store(AttrTouchplug, "1"))
	require.NoError(t, set.Store(AttrDebug, "1"))
	require.NoError(t, set.Store(AttrEnabled, "0"))
	assert.Equal(t, Switches{Enabled: false, Touchplug: true, Debug: true}, c.Switches())

	got, err := set.Get(AttrTouchplug)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}
