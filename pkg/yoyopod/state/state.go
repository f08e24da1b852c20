// Package state holds the application state machine. The machine is the
// single source of truth for the combined music/call state; all valid
// transitions live in one static table and nothing is synthesized at
// runtime.
package state

// AppState is the closed set of application states. Combined states exist
// so the coordinator can tell, from state alone, whether music should
// resume after a call ends.
type AppState int

const (
	// Baseline states.
	Menu AppState = iota
	MusicReady
	MusicPaused
	Browsing

	// Call states.
	CallIdle
	CallIncoming
	CallOutgoing
	CallActive

	// Combined states.
	MusicReadyVoIP
	MusicPausedByCall
	CallActiveMusicPaused
	Error
)

func (s AppState) String() string {
	switch s {
	case Menu:
		return "menu"
	case MusicReady:
		return "music_ready"
	case MusicPaused:
		return "music_paused"
	case Browsing:
		return "browsing"
	case CallIdle:
		return "call_idle"
	case CallIncoming:
		return "call_incoming"
	case CallOutgoing:
		return "call_outgoing"
	case CallActive:
		return "call_active"
	case MusicReadyVoIP:
		return "music_ready_voip"
	case MusicPausedByCall:
		return "music_paused_by_call"
	case CallActiveMusicPaused:
		return "call_active_music_paused"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// GuardContext exposes the runtime facts guards may consult. The
// coordinator implements it.
type GuardContext interface {
	// Registered reports whether the SIP account is currently registered.
	Registered() bool
}

// Guard is a predicate attached to a transition; the transition is
// permitted only while the guard holds.
type Guard func(GuardContext) bool

// Transition is a single allowed edge in the state machine.
type Transition struct {
	From    AppState
	To      AppState
	Trigger string
	Guard   Guard
}
