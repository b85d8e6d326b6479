// Package attr is the key-value configuration surface over the controllers'
// tunables. Every attribute is a named non-negative integer with a getter and
// a validating setter; values travel as decimal text, one value per store.
package attr

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrInvalid is returned when a stored value is not a non-negative
	// decimal integer or fails the attribute's own validation.
	ErrInvalid = errors.New("attr: invalid value")

	// ErrUnknown is returned for an attribute name that was never registered.
	ErrUnknown = errors.New("attr: unknown attribute")
)

// Attr is one named tunable.
type Attr struct {
	Name string
	Get  func() uint64
	// Set validates and applies v. It must leave the prior value in place
	// when it returns an error.
	Set func(v uint64) error
}

// Set is a registry of attributes. It is safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	attrs map[string]Attr
}

func NewSet() *Set {
	return &Set{attrs: make(map[string]Attr)}
}

// Register adds attributes, replacing any with the same name.
func (s *Set) Register(attrs ...Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range attrs {
		s.attrs[a.Name] = a
	}
}

func (s *Set) lookup(name string) (Attr, error) {
	s.mu.RLock()
	a, ok := s.attrs[name]
	s.mu.RUnlock()
	if !ok {
		return Attr{}, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return a, nil
}

// Show returns the value formatted the way a sysfs attribute reads: "%d\n".
func (s *Set) Show(name string) (string, error) {
	a, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d\n", a.Get()), nil
}

// Get returns the raw value.
func (s *Set) Get(name string) (uint64, error) {
	a, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return a.Get(), nil
}

// Store parses value and applies it. Surrounding whitespace is ignored;
// anything else that is not a uint32 decimal is rejected without touching
// the current value.
func (s *Set) Store(name, value string) error {
	a, err := s.lookup(name)
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", name, value, ErrInvalid)
	}
	return s.apply(a, v)
}

// StoreUint applies an already-parsed value.
func (s *Set) StoreUint(name string, v uint64) error {
	a, err := s.lookup(name)
	if err != nil {
		return err
	}
	if v > math.MaxUint32 {
		return fmt.Errorf("%s=%d: %w", name, v, ErrInvalid)
	}
	return s.apply(a, v)
}

func (s *Set) apply(a Attr, v uint64) error {
	if a.Set == nil {
		return fmt.Errorf("%s is read-only: %w", a.Name, ErrInvalid)
	}
	if err := a.Set(v); err != nil {
		if errors.Is(err, ErrInvalid) {
			return err
		}
		return fmt.Errorf("%s=%d: %w: %v", a.Name, v, ErrInvalid, err)
	}
	return nil
}

// Names returns the registered attribute names, sorted.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.attrs))
	for n := range s.attrs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Snapshot returns every attribute's current value.
func (s *Set) Snapshot() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]uint64, len(s.attrs))
	for n, a := range s.attrs {
		out[n] = a.Get()
	}
	return out
}

// Bool adapts a boolean switch to an attribute: 0 is off, 1 is on, anything
// else is rejected.
func Bool(name string, get func() bool, set func(bool)) Attr {
	return Attr{
		Name: name,
		Get: func() uint64 {
			if get() {
				return 1
			}
			return 0
		},
		Set: func(v uint64) error {
			if v > 1 {
				return fmt.Errorf("%s=%d: want 0 or 1: %w", name, v, ErrInvalid)
			}
			set(v == 1)
			return nil
		},
	}
}
