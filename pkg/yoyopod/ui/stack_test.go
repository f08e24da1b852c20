package ui

import (
	"io"
	"testing"
)

// stubScreen records lifecycle calls for stack tests.
type stubScreen struct {
	id      ScreenID
	overlay bool
	enters  int
	exits   int
	renders int
}

func (s *stubScreen) ID() ScreenID        { return s.id }
func (s *stubScreen) Overlay() bool       { return s.overlay }
func (s *stubScreen) Enter()              { s.enters++ }
func (s *stubScreen) Exit()               { s.exits++ }
func (s *stubScreen) Render(Display)      { s.renders++ }
func (s *stubScreen) HandleAction(Action) {}

func newTestStack(screens ...*stubScreen) *Stack {
	st := NewStack(NewTerminalDisplay(io.Discard, 8))
	for _, sc := range screens {
		st.Register(sc)
	}
	return st
}

func TestStackPushPop(t *testing.T) {
	menu := &stubScreen{id: ScreenMenu}
	now := &stubScreen{id: ScreenNowPlaying}
	st := newTestStack(menu, now)

	if _, ok := st.Current(); ok {
		t.Fatal("new stack reports a current screen")
	}

	st.Push(ScreenMenu)
	if id, _ := st.Current(); id != ScreenMenu {
		t.Fatalf("current = %s, want %s", id, ScreenMenu)
	}
	if menu.enters != 1 {
		t.Errorf("menu enters = %d, want 1", menu.enters)
	}

	st.Push(ScreenNowPlaying)
	if menu.exits != 1 {
		t.Errorf("menu exits = %d, want 1", menu.exits)
	}
	if st.Depth() != 1 {
		t.Errorf("depth = %d, want 1", st.Depth())
	}

	if !st.Pop() {
		t.Fatal("Pop returned false with history present")
	}
	if id, _ := st.Current(); id != ScreenMenu {
		t.Errorf("current after pop = %s, want %s", id, ScreenMenu)
	}
	if menu.enters != 2 {
		t.Errorf("menu enters = %d, want 2 (re-entered on pop)", menu.enters)
	}

	if st.Pop() {
		t.Error("Pop returned true on empty history")
	}
	if _, ok := st.Current(); !ok {
		t.Error("current screen lost after failed pop")
	}
}

func TestStackPushSameScreenIsNoOp(t *testing.T) {
	now := &stubScreen{id: ScreenNowPlaying}
	st := newTestStack(now)

	st.Push(ScreenNowPlaying)
	st.Push(ScreenNowPlaying)
	st.Push(ScreenNowPlaying)

	if st.Depth() != 0 {
		t.Errorf("depth = %d after repeated pushes of one screen, want 0", st.Depth())
	}
	if now.enters != 1 {
		t.Errorf("enters = %d, want 1", now.enters)
	}
}

func TestStackPushUnregisteredScreenIgnored(t *testing.T) {
	menu := &stubScreen{id: ScreenMenu}
	st := newTestStack(menu)

	st.Push(ScreenMenu)
	st.Push(ScreenContacts)

	if id, _ := st.Current(); id != ScreenMenu {
		t.Errorf("current = %s after unregistered push, want %s", id, ScreenMenu)
	}
	if st.Depth() != 0 {
		t.Errorf("depth = %d, want 0", st.Depth())
	}
}

func TestStackPopWhileUnwindsOverlays(t *testing.T) {
	menu := &stubScreen{id: ScreenMenu}
	now := &stubScreen{id: ScreenNowPlaying}
	incoming := &stubScreen{id: ScreenIncomingCall, overlay: true}
	inCall := &stubScreen{id: ScreenInCall, overlay: true}
	st := newTestStack(menu, now, incoming, inCall)

	st.Push(ScreenMenu)
	st.Push(ScreenNowPlaying)
	st.Push(ScreenIncomingCall)
	st.Push(ScreenInCall)

	st.PopWhile(IsOverlay)

	if id, _ := st.Current(); id != ScreenNowPlaying {
		t.Errorf("current = %s after unwind, want %s", id, ScreenNowPlaying)
	}
	if st.Depth() != 1 {
		t.Errorf("depth = %d, want 1", st.Depth())
	}
}

func TestStackPopWhileStopsAtEmptyStack(t *testing.T) {
	incoming := &stubScreen{id: ScreenIncomingCall, overlay: true}
	st := newTestStack(incoming)

	st.Push(ScreenIncomingCall)
	st.PopWhile(IsOverlay)

	// Nothing beneath the overlay: it stays current rather than leaving
	// the stack with no screen at all.
	if id, ok := st.Current(); !ok || id != ScreenIncomingCall {
		t.Errorf("current = %s ok=%v, want %s", id, ok, ScreenIncomingCall)
	}
}

func TestStackPopWhileLeavesNonOverlayAlone(t *testing.T) {
	menu := &stubScreen{id: ScreenMenu}
	st := newTestStack(menu)

	st.Push(ScreenMenu)
	st.PopWhile(IsOverlay)

	if id, _ := st.Current(); id != ScreenMenu {
		t.Errorf("current = %s, want %s", id, ScreenMenu)
	}
}
