package hotplug

import "errors"

var (
	// ErrInvalidSample marks a tick whose measurements cannot be trusted
	// (zero wall delta, idle delta larger than wall delta, counters going
	// backwards, or nothing measured yet). The tick is skipped.
	ErrInvalidSample = errors.New("hotplug: invalid sample")

	// ErrInvalidTunables is returned when a tunable set violates its bounds.
	ErrInvalidTunables = errors.New("hotplug: invalid tunables")

	// ErrNoUnits is returned by New when the unit collaborator reports no units.
	ErrNoUnits = errors.New("hotplug: no units")

	// ErrMissingCollaborator is returned by New when a required collaborator is nil.
	ErrMissingCollaborator = errors.New("hotplug: missing collaborator")

	// ErrRunning is returned by Run when the controller loop is already running.
	ErrRunning = errors.New("hotplug: already running")
)
