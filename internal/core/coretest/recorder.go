// Package coretest provides an in-memory SignalConnection for tests.
package coretest

import (
	"errors"
	"sync"

	"github.com/dkeye/Lobby/internal/core"
)

var ErrFull = errors.New("recorder full")

// Recorder decodes and keeps every event it is sent. Setting Full makes
// TrySend fail like a congested transport.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
	full   bool
	closed bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return ErrFull
	}
	ev, err := core.Decode(f)
	if err != nil {
		return err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Recorder) SetFull(full bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.full = full
}

func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

func (r *Recorder) Types() []core.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// Last returns the most recent event of type t.
func (r *Recorder) Last(t core.EventType) (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return core.Event{}, false
}

func (r *Recorder) Count(t core.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
