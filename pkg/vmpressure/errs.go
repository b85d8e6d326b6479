package vmpressure

import "errors"

var (
	// ErrInvalidConfig is returned by Subscribe for a watch config with the
	// wrong size or an unknown threshold level.
	ErrInvalidConfig = errors.New("vmpressure: invalid watch config")

	// ErrNoResources is returned by Subscribe when the watcher limit is reached.
	ErrNoResources = errors.New("vmpressure: no watcher slots left")

	// ErrInterrupted is returned by a blocked Read whose context ended. It
	// wraps the context error.
	ErrInterrupted = errors.New("vmpressure: read interrupted")

	ErrClosed = errors.New("vmpressure: watch closed")

	// ErrShortBuffer is returned by ReadInto for a buffer smaller than one
	// event record.
	ErrShortBuffer = errors.New("vmpressure: buffer smaller than event record")

	ErrInvalidTunables = errors.New("vmpressure: invalid tunables")

	ErrRunning = errors.New("vmpressure: already running")
)
