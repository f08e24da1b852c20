package ui

// ScreenID is a type-safe identifier for screens.
type ScreenID int

const (
	ScreenNone ScreenID = iota
	ScreenMenu
	ScreenNowPlaying
	ScreenPlaylists
	ScreenContacts
	ScreenCallStatus
	ScreenIncomingCall
	ScreenOutgoingCall
	ScreenInCall
)

func (id ScreenID) String() string {
	switch id {
	case ScreenMenu:
		return "menu"
	case ScreenNowPlaying:
		return "now_playing"
	case ScreenPlaylists:
		return "playlists"
	case ScreenContacts:
		return "contacts"
	case ScreenCallStatus:
		return "call_status"
	case ScreenIncomingCall:
		return "incoming_call"
	case ScreenOutgoingCall:
		return "outgoing_call"
	case ScreenInCall:
		return "in_call"
	default:
		return "none"
	}
}

// Screen is one navigable view. Enter/Exit bracket the time a screen is
// current; HandleAction runs only while current, from the coordinator
// loop.
type Screen interface {
	ID() ScreenID
	// Overlay marks transient call screens eligible for bulk-unwind
	// when the call ends.
	Overlay() bool
	Enter()
	Exit()
	Render(d Display)
	HandleAction(a Action)
}

// CallControl is the capability call screens use. The coordinator
// implements it; screens never see the coordinator itself.
type CallControl interface {
	Answer()
	Hangup()
	PlaceCall(address, name string)
}

// MusicControl is the capability music screens use.
type MusicControl interface {
	TogglePlayback()
	NextTrack()
	PreviousTrack()
	VolumeUp()
	VolumeDown()
	LoadPlaylist(uri string)
}

// Navigator is the capability screens use to move between screens.
type Navigator interface {
	Push(id ScreenID)
	Pop()
}
