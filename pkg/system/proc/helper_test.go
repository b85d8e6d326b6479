//go:build linux

package proc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0", 1},
		{"0-3\n", 4},
		{"0,2-5", 6},
		{"0-1,7", 8},
	}
	for _, tt := range tests {
		got, err := parseCPUList(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "0-", "a", "3-1"} {
		_, err := parseCPUList(bad)
		assert.ErrorIs(t, err, ErrBadRange, bad)
	}
}

func TestReadUint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "v"), "42\n")

	v, err := readUint(filepath.Join(dir, "v"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = readUint(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
