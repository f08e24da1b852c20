package ui

import (
	"log/slog"

	"github.com/yoyopod/yoyopod/internal"
)

// Entry is a single entry in the navigation stack.
type Entry struct {
	ID      ScreenID
	Overlay bool
}

// Stack manages the current screen and the navigation history. After
// every operation exactly one screen is current; only before the first
// push is there none. All mutation happens on the coordinator loop, so
// the stack holds no locking.
type Stack struct {
	screens    map[ScreenID]Screen
	display    Display
	current    ScreenID
	hasCurrent bool
	history    []Entry
	log        *slog.Logger
}

// NewStack creates an empty stack rendering onto d.
func NewStack(d Display) *Stack {
	return &Stack{
		screens: make(map[ScreenID]Screen),
		display: d,
		log:     internal.GetLogger(),
	}
}

// Register adds a screen. Screens must be registered before being
// pushed.
func (s *Stack) Register(screen Screen) {
	s.screens[screen.ID()] = screen
}

// Current returns the current screen id; ok is false before the first
// push.
func (s *Stack) Current() (ScreenID, bool) {
	return s.current, s.hasCurrent
}

// CurrentScreen returns the current screen, or nil before the first
// push.
func (s *Stack) CurrentScreen() Screen {
	if !s.hasCurrent {
		return nil
	}
	return s.screens[s.current]
}

// Depth returns the history depth (entries beneath the current screen).
func (s *Stack) Depth() int { return len(s.history) }

// Push makes id current. Pushing the screen that is already current is
// a no-op, which keeps repeated raw detection lines from stacking the
// same screen.
func (s *Stack) Push(id ScreenID) {
	if s.hasCurrent && s.current == id {
		return
	}
	screen, ok := s.screens[id]
	if !ok {
		s.log.Error("push of unregistered screen", "screen", id.String())
		return
	}

	if s.hasCurrent {
		prev := s.screens[s.current]
		prev.Exit()
		s.history = append(s.history, Entry{ID: s.current, Overlay: prev.Overlay()})
	}

	s.current = id
	s.hasCurrent = true
	screen.Enter()
	s.render(screen)

	s.log.Info("screen pushed", "screen", id.String(), "depth", len(s.history))
}

// Pop restores the most recent history entry as current. Returns false
// on empty history.
func (s *Stack) Pop() bool {
	if len(s.history) == 0 {
		return false
	}

	if s.hasCurrent {
		s.screens[s.current].Exit()
	}

	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	s.current = entry.ID
	screen := s.screens[s.current]
	screen.Enter()
	s.render(screen)

	s.log.Info("screen popped", "screen", s.current.String(), "depth", len(s.history))
	return true
}

// PopWhile pops while pred holds for the current screen, stopping at an
// empty stack or the first non-matching screen. The coordinator uses it
// to unwind every overlay call screen in one call.
func (s *Stack) PopWhile(pred func(Screen) bool) {
	for s.hasCurrent && pred(s.screens[s.current]) {
		if !s.Pop() {
			break
		}
	}
}

// IsOverlay is the predicate used to unwind call overlays.
func IsOverlay(screen Screen) bool { return screen.Overlay() }

// RenderCurrent re-renders the current screen in place, without any
// navigation change.
func (s *Stack) RenderCurrent() {
	if screen := s.CurrentScreen(); screen != nil {
		s.render(screen)
	}
}

func (s *Stack) render(screen Screen) {
	s.display.Clear()
	screen.Render(s.display)
	s.display.Flush()
}
