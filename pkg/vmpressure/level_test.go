package vmpressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"low": Low, "Medium": Medium, " OOM ": OOM, "med": Medium} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("critical")
	assert.Error(t, err)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "medium", Medium.String())
	assert.Equal(t, "none", Level(0).String())
	assert.Equal(t, "level(7)", Level(7).String())
	assert.False(t, Level(7).Valid())
}

func TestEvent_Binary(t *testing.T) {
	b, err := Event{Pressure: OOM}.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, EventSize)

	var ev Event
	require.NoError(t, ev.UnmarshalBinary(b))
	assert.Equal(t, OOM, ev.Pressure)

	assert.ErrorIs(t, ev.UnmarshalBinary(b[:2]), ErrShortBuffer)
}

// For every valid cutoff pair the mapping must be monotonic in the score
// and match the cutoffs exactly.
func TestTunables_LevelMonotonic(t *testing.T) {
	for med := uint32(0); med < 100; med += 7 {
		for oom := med + 1; oom <= 100; oom += 5 {
			tun := Tunables{Window: 1, LevelMed: med, LevelOOM: oom}
			require.NoError(t, tun.Validate())
			prev := Level(0)
			for p := uint32(0); p <= 100; p++ {
				lvl := tun.Level(p)
				require.GreaterOrEqual(t, lvl, prev, "med=%d oom=%d p=%d", med, oom, p)
				prev = lvl
				switch {
				case p >= oom:
					require.Equal(t, OOM, lvl)
				case p >= med:
					require.Equal(t, Medium, lvl)
				default:
					require.Equal(t, Low, lvl)
				}
			}
		}
	}
}

func TestTunables_Validate(t *testing.T) {
	require.NoError(t, DefaultTunables().Validate())
	for name, tun := range map[string]Tunables{
		"zero window":  {Window: 0, LevelMed: 60, LevelOOM: 99},
		"oom over 100": {Window: 1, LevelMed: 60, LevelOOM: 101},
		"med == oom":   {Window: 1, LevelMed: 80, LevelOOM: 80},
		"med > oom":    {Window: 1, LevelMed: 90, LevelOOM: 80},
	} {
		assert.ErrorIs(t, tun.Validate(), ErrInvalidTunables, name)
	}
}
