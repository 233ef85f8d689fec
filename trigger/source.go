// Package trigger drives the dump pipeline once, either immediately or each
// time a global hot-key fires.
package trigger

import "errors"

// ErrSourceClosed is returned by Source.Wait when no more events will arrive.
var ErrSourceClosed = errors.New("trigger source closed")

// Event is one reason to take a dump
type Event int

const (
	Immediate Event = iota
	HotKeyFired
)

func (e Event) String() string {
	switch e {
	case Immediate:
		return "immediate"
	case HotKeyFired:
		return "hot-key"
	default:
		return "unknown"
	}
}

// Source delivers trigger events. Wait blocks until the next event. Sources
// are used from a single goroutine.
type Source interface {
	Wait() (Event, error)
	Close() error
}

// OpenFunc creates the Source a Controller waits on
type OpenFunc func() (Source, error)

// ImmediateSource fires once, straight away
type ImmediateSource struct {
	fired bool
}

func NewImmediateSource() *ImmediateSource {
	return &ImmediateSource{}
}

func (s *ImmediateSource) Wait() (Event, error) {
	if s.fired {
		return 0, ErrSourceClosed
	}
	s.fired = true
	return Immediate, nil
}

func (s *ImmediateSource) Close() error {
	s.fired = true
	return nil
}
