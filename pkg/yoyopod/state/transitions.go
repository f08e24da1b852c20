package state

// Trigger names used by the coordinator and screens. Keeping them as
// constants makes the table greppable against the call sites.
const (
	TriggerOpenMusic         = "open_music"
	TriggerOpenVoIP          = "open_voip"
	TriggerBack              = "back"
	TriggerBrowse            = "browse_playlists"
	TriggerLoadPlaylist      = "load_playlist"
	TriggerPause             = "pause"
	TriggerResume            = "resume"
	TriggerPlaybackStopped   = "playback_stopped"
	TriggerVoIPReady         = "voip_ready"
	TriggerMakeCall          = "make_call"
	TriggerIncomingCall      = "incoming_call"
	TriggerAutoPauseForCall  = "auto_pause_for_call"
	TriggerCallAnswered      = "call_answered"
	TriggerCallConnected     = "call_connected"
	TriggerCallEnded         = "call_ended"
	TriggerCallEndedResume   = "call_ended_auto_resume"
	TriggerCallEndedNoResume = "call_ended_stay_paused"
	TriggerConnectionLost    = "connection_lost"
	TriggerReset             = "reset"
)

func registered(gc GuardContext) bool { return gc.Registered() }

// transitions is the closed table of allowed edges.
var transitions = []Transition{
	// Menu navigation.
	{From: Menu, To: MusicReady, Trigger: TriggerOpenMusic},
	{From: Menu, To: Browsing, Trigger: TriggerBrowse},
	{From: Menu, To: CallIdle, Trigger: TriggerOpenVoIP},

	// Playlist browsing.
	{From: Browsing, To: Menu, Trigger: TriggerBack},
	{From: Browsing, To: MusicReady, Trigger: TriggerLoadPlaylist},
	{From: Browsing, To: MusicReadyVoIP, Trigger: TriggerLoadPlaylist, Guard: registered},

	// Plain playback.
	{From: MusicReady, To: MusicPaused, Trigger: TriggerPause},
	{From: MusicReady, To: MusicPaused, Trigger: TriggerPlaybackStopped},
	{From: MusicReady, To: Menu, Trigger: TriggerBack},
	{From: MusicPaused, To: MusicReady, Trigger: TriggerResume},
	{From: MusicPaused, To: Menu, Trigger: TriggerBack},

	// Registration upgrades playback into the combined ready state.
	{From: MusicReady, To: MusicReadyVoIP, Trigger: TriggerVoIPReady, Guard: registered},
	{From: MusicReadyVoIP, To: MusicPaused, Trigger: TriggerPause},
	{From: MusicReadyVoIP, To: MusicPaused, Trigger: TriggerPlaybackStopped},
	{From: MusicReadyVoIP, To: MusicReady, Trigger: TriggerVoIPReady}, // registration lost
	{From: MusicReadyVoIP, To: Menu, Trigger: TriggerBack},

	// Call priority: audible music is paused before the ring is surfaced.
	{From: MusicReadyVoIP, To: MusicPausedByCall, Trigger: TriggerAutoPauseForCall},
	{From: MusicReady, To: MusicPausedByCall, Trigger: TriggerAutoPauseForCall},

	// Incoming ring, from every state a ring can interrupt.
	{From: Menu, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: Browsing, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: CallIdle, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: MusicPaused, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: MusicPausedByCall, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: MusicReady, To: CallIncoming, Trigger: TriggerIncomingCall},
	{From: MusicReadyVoIP, To: CallIncoming, Trigger: TriggerIncomingCall},

	// Outgoing call placement.
	{From: CallIdle, To: CallOutgoing, Trigger: TriggerMakeCall, Guard: registered},
	{From: Menu, To: CallOutgoing, Trigger: TriggerMakeCall, Guard: registered},
	{From: MusicPausedByCall, To: CallOutgoing, Trigger: TriggerMakeCall, Guard: registered},
	{From: MusicPaused, To: CallOutgoing, Trigger: TriggerMakeCall, Guard: registered},

	// Answer / connect.
	{From: CallIncoming, To: CallActive, Trigger: TriggerCallConnected},
	{From: CallIncoming, To: CallActiveMusicPaused, Trigger: TriggerCallAnswered},
	{From: CallOutgoing, To: CallActive, Trigger: TriggerCallConnected},
	{From: CallOutgoing, To: CallActiveMusicPaused, Trigger: TriggerCallAnswered},

	// Call termination.
	{From: CallIncoming, To: CallIdle, Trigger: TriggerCallEnded},
	{From: CallOutgoing, To: CallIdle, Trigger: TriggerCallEnded},
	{From: CallActive, To: CallIdle, Trigger: TriggerCallEnded},
	{From: CallActiveMusicPaused, To: CallIdle, Trigger: TriggerCallEnded},
	{From: CallIncoming, To: MusicReadyVoIP, Trigger: TriggerCallEndedResume, Guard: registered},
	{From: CallOutgoing, To: MusicReadyVoIP, Trigger: TriggerCallEndedResume, Guard: registered},
	{From: CallActive, To: MusicReadyVoIP, Trigger: TriggerCallEndedResume, Guard: registered},
	{From: CallActiveMusicPaused, To: MusicReadyVoIP, Trigger: TriggerCallEndedResume, Guard: registered},
	{From: CallIncoming, To: MusicReady, Trigger: TriggerCallEndedResume},
	{From: CallOutgoing, To: MusicReady, Trigger: TriggerCallEndedResume},
	{From: CallActive, To: MusicReady, Trigger: TriggerCallEndedResume},
	{From: CallActiveMusicPaused, To: MusicReady, Trigger: TriggerCallEndedResume},
	{From: CallIncoming, To: MusicPaused, Trigger: TriggerCallEndedNoResume},
	{From: CallOutgoing, To: MusicPaused, Trigger: TriggerCallEndedNoResume},
	{From: CallActive, To: MusicPaused, Trigger: TriggerCallEndedNoResume},
	{From: CallActiveMusicPaused, To: MusicPaused, Trigger: TriggerCallEndedNoResume},

	// A call torn down before it ever rang or connected still restores
	// the music context.
	{From: MusicPausedByCall, To: MusicReadyVoIP, Trigger: TriggerCallEndedResume, Guard: registered},
	{From: MusicPausedByCall, To: MusicReady, Trigger: TriggerCallEndedResume},
	{From: MusicPausedByCall, To: MusicPaused, Trigger: TriggerCallEndedNoResume},

	// VoIP status navigation.
	{From: CallIdle, To: Menu, Trigger: TriggerBack},

	// Subprocess stream loss. Reachable from every live state so a dying
	// SIP stack can never strand the machine.
	{From: Menu, To: Error, Trigger: TriggerConnectionLost},
	{From: Browsing, To: Error, Trigger: TriggerConnectionLost},
	{From: MusicReady, To: Error, Trigger: TriggerConnectionLost},
	{From: MusicPaused, To: Error, Trigger: TriggerConnectionLost},
	{From: MusicReadyVoIP, To: Error, Trigger: TriggerConnectionLost},
	{From: MusicPausedByCall, To: Error, Trigger: TriggerConnectionLost},
	{From: CallIdle, To: Error, Trigger: TriggerConnectionLost},
	{From: CallIncoming, To: Error, Trigger: TriggerConnectionLost},
	{From: CallOutgoing, To: Error, Trigger: TriggerConnectionLost},
	{From: CallActive, To: Error, Trigger: TriggerConnectionLost},
	{From: CallActiveMusicPaused, To: Error, Trigger: TriggerConnectionLost},

	// Recovery back to a usable device.
	{From: Error, To: Menu, Trigger: TriggerReset},
}

// transitionFor returns the table entry matching (from, to, trigger).
func transitionFor(from, to AppState, trigger string) (Transition, bool) {
	for _, tr := range transitions {
		if tr.From == from && tr.To == to && tr.Trigger == trigger {
			return tr, true
		}
	}
	return Transition{}, false
}
