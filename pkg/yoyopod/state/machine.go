package state

import (
	"fmt"
	"log/slog"

	"github.com/yoyopod/yoyopod/internal"
)

// RejectedError reports an attempted transition with no matching table
// entry or a failing guard. The machine's state is unchanged.
type RejectedError struct {
	From    AppState
	To      AppState
	Trigger string
	ByGuard bool
}

func (e *RejectedError) Error() string {
	if e.ByGuard {
		return fmt.Sprintf("state: transition %s -> %s (%s) blocked by guard", e.From, e.To, e.Trigger)
	}
	return fmt.Sprintf("state: invalid transition %s -> %s (%s)", e.From, e.To, e.Trigger)
}

// Hook runs synchronously when a state is entered or exited.
type Hook func(s AppState)

// Machine validates and applies AppState transitions against the static
// table. It holds no locking: callers must invoke it from one serialized
// context only (the coordinator loop).
type Machine struct {
	current AppState
	guards  GuardContext
	onEnter map[AppState][]Hook
	onExit  map[AppState][]Hook
	log     *slog.Logger
}

// NewMachine creates a machine starting in the Menu state.
func NewMachine(guards GuardContext) *Machine {
	return &Machine{
		current: Menu,
		guards:  guards,
		onEnter: make(map[AppState][]Hook),
		onExit:  make(map[AppState][]Hook),
		log:     internal.GetLogger(),
	}
}

// Current returns the current state.
func (m *Machine) Current() AppState { return m.current }

// OnEnter registers a hook fired after entering the given state.
func (m *Machine) OnEnter(s AppState, h Hook) {
	m.onEnter[s] = append(m.onEnter[s], h)
}

// OnExit registers a hook fired before leaving the given state.
func (m *Machine) OnExit(s AppState, h Hook) {
	m.onExit[s] = append(m.onExit[s], h)
}

// CanTransition reports whether (current, target, trigger) is permitted,
// without applying it. A same-state target is always permitted.
func (m *Machine) CanTransition(target AppState, trigger string) bool {
	if target == m.current {
		return true
	}
	tr, ok := transitionFor(m.current, target, trigger)
	if !ok {
		return false
	}
	return tr.Guard == nil || tr.Guard(m.guards)
}

// Transition moves the machine to target if the table permits it. On
// success it runs exit hooks for the old state, assigns the new state,
// then runs enter hooks, in that order. On failure the state is unchanged
// and a *RejectedError is returned.
func (m *Machine) Transition(target AppState, trigger string) error {
	if target == m.current {
		return nil
	}

	tr, ok := transitionFor(m.current, target, trigger)
	if !ok {
		err := &RejectedError{From: m.current, To: target, Trigger: trigger}
		m.log.Warn("transition rejected", "from", m.current.String(), "to", target.String(), "trigger", trigger)
		return err
	}
	if tr.Guard != nil && !tr.Guard(m.guards) {
		err := &RejectedError{From: m.current, To: target, Trigger: trigger, ByGuard: true}
		m.log.Warn("transition blocked by guard", "from", m.current.String(), "to", target.String(), "trigger", trigger)
		return err
	}

	old := m.current
	for _, h := range m.onExit[old] {
		h(old)
	}
	m.current = target
	for _, h := range m.onEnter[target] {
		h(target)
	}

	m.log.Info("state transition", "from", old.String(), "to", target.String(), "trigger", trigger)
	return nil
}

// IsCallActive reports whether a call is in progress in any form,
// derived purely from the current state.
func (m *Machine) IsCallActive() bool {
	switch m.current {
	case CallIncoming, CallOutgoing, CallActive, CallActiveMusicPaused:
		return true
	}
	return false
}

// IsMusicPlaying reports whether music is audible right now.
func (m *Machine) IsMusicPlaying() bool {
	return m.current == MusicReady || m.current == MusicReadyVoIP
}

// HasPausedMusicForCall reports whether music was paused on behalf of a
// call and is waiting for that call to end.
func (m *Machine) HasPausedMusicForCall() bool {
	return m.current == MusicPausedByCall || m.current == CallActiveMusicPaused
}
