// Package event defines the typed events exchanged between the background
// sources (VoIP monitor, playback poller) and the coordinator. Each source
// has its own closed union; the coordinator receives both over a single
// intake channel and never sees raw subprocess or RPC output.
package event

import "time"

// Event is the base interface for everything that travels over the intake.
type Event interface {
	EventType() string
	EventTime() time.Time
}

type baseEvent struct {
	typ  string
	time time.Time
}

func (e baseEvent) EventType() string    { return e.typ }
func (e baseEvent) EventTime() time.Time { return e.time }

func newBase(typ string) baseEvent {
	return baseEvent{typ: typ, time: time.Now()}
}

// CallEvent marks events originating from the call-control subprocess.
type CallEvent interface {
	Event
	callEvent()
}

// MusicEvent marks events originating from the playback service.
type MusicEvent interface {
	Event
	musicEvent()
}

// CallPhase is the lifecycle phase of a single call as reported by the
// call-control subprocess.
type CallPhase int

const (
	PhaseIdle CallPhase = iota
	PhaseOutgoing
	PhaseIncoming
	PhaseConnected
	PhaseStreamsRunning
	PhaseReleased
	PhaseError
)

func (p CallPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOutgoing:
		return "outgoing"
	case PhaseIncoming:
		return "incoming"
	case PhaseConnected:
		return "connected"
	case PhaseStreamsRunning:
		return "streams_running"
	case PhaseReleased:
		return "released"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the call session.
func (p CallPhase) Terminal() bool {
	return p == PhaseReleased || p == PhaseError
}

// RegistrationState is the SIP registration state.
type RegistrationState int

const (
	RegistrationNone RegistrationState = iota
	RegistrationProgress
	RegistrationOK
	RegistrationCleared
	RegistrationFailed
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationNone:
		return "none"
	case RegistrationProgress:
		return "progress"
	case RegistrationOK:
		return "ok"
	case RegistrationCleared:
		return "cleared"
	case RegistrationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RegistrationChanged fires when the SIP registration state changes.
type RegistrationChanged struct {
	baseEvent
	State RegistrationState
}

func NewRegistrationChanged(state RegistrationState) RegistrationChanged {
	return RegistrationChanged{baseEvent: newBase("call.registrationChanged"), State: state}
}

func (RegistrationChanged) callEvent() {}

// IncomingCall fires when the subprocess reports a new inbound ring.
// RawAddress may be empty when the line matched but the address could not
// be extracted; the call is still reported.
type IncomingCall struct {
	baseEvent
	RawAddress   string
	ResolvedName string
}

func NewIncomingCall(rawAddress, resolvedName string) IncomingCall {
	return IncomingCall{baseEvent: newBase("call.incoming"), RawAddress: rawAddress, ResolvedName: resolvedName}
}

func (IncomingCall) callEvent() {}

// CallStateChanged fires when the call lifecycle phase changes.
type CallStateChanged struct {
	baseEvent
	Phase CallPhase
}

func NewCallStateChanged(phase CallPhase) CallStateChanged {
	return CallStateChanged{baseEvent: newBase("call.stateChanged"), Phase: phase}
}

func (CallStateChanged) callEvent() {}

// ConnectionLost fires exactly once when the subprocess output stream
// closes (process exited or pipe broken).
type ConnectionLost struct {
	baseEvent
}

func NewConnectionLost() ConnectionLost {
	return ConnectionLost{baseEvent: newBase("call.connectionLost")}
}

func (ConnectionLost) callEvent() {}

// PlaybackPhase is the playback service's reported state.
type PlaybackPhase int

const (
	PlaybackStopped PlaybackPhase = iota
	PlaybackPlaying
	PlaybackPaused
)

func (p PlaybackPhase) String() string {
	switch p {
	case PlaybackStopped:
		return "stopped"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackChanged fires when the identity of the current track changes.
type TrackChanged struct {
	baseEvent
	TrackID string
	Title   string
	Artist  string
}

func NewTrackChanged(trackID, title, artist string) TrackChanged {
	return TrackChanged{baseEvent: newBase("music.trackChanged"), TrackID: trackID, Title: title, Artist: artist}
}

func (TrackChanged) musicEvent() {}

// PlaybackStateChanged fires when the playback phase changes.
type PlaybackStateChanged struct {
	baseEvent
	Phase PlaybackPhase
}

func NewPlaybackStateChanged(phase PlaybackPhase) PlaybackStateChanged {
	return PlaybackStateChanged{baseEvent: newBase("music.playbackStateChanged"), Phase: phase}
}

func (PlaybackStateChanged) musicEvent() {}

// ConnectivityDegraded fires once after the configured number of
// consecutive poll failures.
type ConnectivityDegraded struct {
	baseEvent
}

func NewConnectivityDegraded() ConnectivityDegraded {
	return ConnectivityDegraded{baseEvent: newBase("music.connectivityDegraded")}
}

func (ConnectivityDegraded) musicEvent() {}
