//go:build linux

package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, evs ...rawEvent) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range evs {
		require.NoError(t, binary.Write(&buf, binary.NativeEndian, ev))
	}
	return &buf
}

func TestDecode_CountsInteractions(t *testing.T) {
	buf := encode(t,
		rawEvent{Type: evAbs, Code: 0x35, Value: 120},
		rawEvent{Type: evAbs, Code: 0x36, Value: 480},
		rawEvent{Type: evSyn},
		rawEvent{Type: evKey, Code: 0x14a, Value: 1},
		rawEvent{Type: 0x04}, // EV_MSC
	)
	require.Equal(t, 5*eventSize, buf.Len())

	n := 0
	require.NoError(t, Decode(buf, func() { n++ }))
	assert.Equal(t, 3, n)
}

func TestDecode_TruncatedRecord(t *testing.T) {
	buf := encode(t, rawEvent{Type: evKey})
	buf.Truncate(eventSize - 3)

	err := Decode(buf, func() {})
	assert.Error(t, err)
}

func TestHasBits(t *testing.T) {
	assert.True(t, hasBits("6e18000 0 0\n"))
	assert.False(t, hasBits("0\n"))
	assert.False(t, hasBits(""))
}

func TestDiscover(t *testing.T) {
	sys := t.TempDir()
	write := func(event, abs string) {
		dir := filepath.Join(sys, "class", "input", event, "device", "capabilities")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "abs"), []byte(abs), 0o644))
	}
	write("event0", "0\n")
	write("event1", "2608000 3\n")
	write("event2", "0 0\n")
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "class", "input", "event3"), 0o755))

	got, err := Discover(sys, "/dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/input/event1"}, got)
}

func TestListen_NotifiesUntilCancel(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "event0")
	require.NoError(t, mkfifo(fifo))
	// Hold a writer open so the reader blocks instead of seeing EOF.
	w, err := openWriter(fifo)
	require.NoError(t, err)
	defer w.Close()

	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Listen(ctx, fifo, func() { n.Add(1) }) }()

	_, err = w.Write(encode(t, rawEvent{Type: evKey, Code: 0x14a, Value: 1}, rawEvent{Type: evSyn}).Bytes())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestListen_MissingDevice(t *testing.T) {
	err := Listen(context.Background(), filepath.Join(t.TempDir(), "nope"), func() {})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
