package ui

import (
	"fmt"
	"time"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/contacts"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
)

// CallStatusScreen shows the SIP registration state.
type CallStatusScreen struct {
	labels   *Labels
	identity string
	state    event.RegistrationState
}

func NewCallStatusScreen(labels *Labels, identity string) *CallStatusScreen {
	return &CallStatusScreen{labels: labels, identity: identity}
}

func (s *CallStatusScreen) ID() ScreenID  { return ScreenCallStatus }
func (s *CallStatusScreen) Overlay() bool { return false }
func (s *CallStatusScreen) Enter()        {}
func (s *CallStatusScreen) Exit()         {}

// SetRegistration updates the displayed registration state.
func (s *CallStatusScreen) SetRegistration(state event.RegistrationState) {
	s.state = state
}

func (s *CallStatusScreen) Render(d Display) {
	d.Line(0, s.labels.T("CallStatusTitle"))
	d.Line(2, s.identity)
	if s.state == event.RegistrationOK {
		d.Line(4, s.labels.T("Registered"))
	} else {
		d.Line(4, s.labels.T("NotRegistered")+" ("+s.state.String()+")")
	}
}

func (s *CallStatusScreen) HandleAction(Action) {}

// ContactsScreen lists the directory, favorites first, and places a
// call to the selected contact.
type ContactsScreen struct {
	labels *Labels
	call   CallControl
	list   []contacts.Contact
	cursor int
}

func NewContactsScreen(labels *Labels, call CallControl, dir *contacts.Directory) *ContactsScreen {
	return &ContactsScreen{labels: labels, call: call, list: dir.All()}
}

func (s *ContactsScreen) ID() ScreenID  { return ScreenContacts }
func (s *ContactsScreen) Overlay() bool { return false }
func (s *ContactsScreen) Enter()        {}
func (s *ContactsScreen) Exit()         {}

func (s *ContactsScreen) Render(d Display) {
	d.Line(0, s.labels.T("ContactsTitle"))
	if len(s.list) == 0 {
		d.Line(2, s.labels.T("NoContacts"))
		return
	}
	start := 0
	if s.cursor > 4 {
		start = s.cursor - 4
	}
	row := 2
	for i := start; i < len(s.list) && row < 8; i++ {
		marker := "  "
		if i == s.cursor {
			marker = "> "
		}
		name := s.list[i].Name
		if s.list[i].Favorite {
			name = "*" + name
		}
		d.Line(row, marker+name)
		row++
	}
}

func (s *ContactsScreen) HandleAction(a Action) {
	switch a {
	case ActionUp:
		if s.cursor > 0 {
			s.cursor--
		}
	case ActionDown:
		if s.cursor < len(s.list)-1 {
			s.cursor++
		}
	case ActionSelect, ActionConfirm:
		if s.cursor < len(s.list) {
			c := s.list[s.cursor]
			s.call.PlaceCall(c.Address, c.Name)
		}
	}
}

// IncomingCallScreen is the ring overlay.
type IncomingCallScreen struct {
	labels *Labels
	call   CallControl

	callerName    string
	callerAddress string
}

func NewIncomingCallScreen(labels *Labels, call CallControl) *IncomingCallScreen {
	return &IncomingCallScreen{labels: labels, call: call}
}

func (s *IncomingCallScreen) ID() ScreenID  { return ScreenIncomingCall }
func (s *IncomingCallScreen) Overlay() bool { return true }
func (s *IncomingCallScreen) Enter()        {}
func (s *IncomingCallScreen) Exit()         {}

// SetCaller updates the displayed caller before the screen is pushed.
func (s *IncomingCallScreen) SetCaller(name, address string) {
	if name == "" {
		name = s.labels.T("UnknownCaller")
	}
	s.callerName = name
	s.callerAddress = address
}

func (s *IncomingCallScreen) Render(d Display) {
	d.Line(0, s.labels.T("IncomingCallTitle"))
	d.Line(2, s.callerName)
	d.Line(3, s.callerAddress)
	d.Line(5, s.labels.T("AnswerHint"))
}

func (s *IncomingCallScreen) HandleAction(a Action) {
	switch a {
	case ActionSelect, ActionConfirm:
		s.call.Answer()
	case ActionBack:
		s.call.Hangup()
	}
}

// OutgoingCallScreen is the dialing overlay.
type OutgoingCallScreen struct {
	labels *Labels
	call   CallControl

	calleeName    string
	calleeAddress string
}

func NewOutgoingCallScreen(labels *Labels, call CallControl) *OutgoingCallScreen {
	return &OutgoingCallScreen{labels: labels, call: call}
}

func (s *OutgoingCallScreen) ID() ScreenID  { return ScreenOutgoingCall }
func (s *OutgoingCallScreen) Overlay() bool { return true }
func (s *OutgoingCallScreen) Enter()        {}
func (s *OutgoingCallScreen) Exit()         {}

// SetCallee updates the displayed callee before the screen is pushed.
func (s *OutgoingCallScreen) SetCallee(name, address string) {
	if name == "" {
		name = s.labels.T("UnknownCaller")
	}
	s.calleeName = name
	s.calleeAddress = address
}

func (s *OutgoingCallScreen) Render(d Display) {
	d.Line(0, s.labels.T("OutgoingCallTitle"))
	d.Line(2, s.calleeName)
	d.Line(3, s.calleeAddress)
	d.Line(5, s.labels.T("HangupHint"))
}

func (s *OutgoingCallScreen) HandleAction(a Action) {
	if a == ActionBack {
		s.call.Hangup()
	}
}

// InCallScreen is the active-call overlay.
type InCallScreen struct {
	labels *Labels
	call   CallControl
	music  MusicControl

	peerName  string
	startedAt time.Time
}

func NewInCallScreen(labels *Labels, call CallControl, music MusicControl) *InCallScreen {
	return &InCallScreen{labels: labels, call: call, music: music}
}

func (s *InCallScreen) ID() ScreenID  { return ScreenInCall }
func (s *InCallScreen) Overlay() bool { return true }

func (s *InCallScreen) Enter() {
	s.startedAt = time.Now()
}

func (s *InCallScreen) Exit() {}

// SetPeer updates the displayed peer before the screen is pushed.
func (s *InCallScreen) SetPeer(name string) {
	if name == "" {
		name = s.labels.T("UnknownCaller")
	}
	s.peerName = name
}

func (s *InCallScreen) Render(d Display) {
	d.Line(0, s.labels.T("InCallTitle"))
	d.Line(2, s.peerName)
	elapsed := time.Since(s.startedAt).Round(time.Second)
	d.Line(4, fmt.Sprintf("%02d:%02d", int(elapsed.Minutes()), int(elapsed.Seconds())%60))
	d.Line(6, s.labels.T("HangupHint"))
}

func (s *InCallScreen) HandleAction(a Action) {
	switch a {
	case ActionBack:
		s.call.Hangup()
	case ActionUp:
		s.music.VolumeUp()
	case ActionDown:
		s.music.VolumeDown()
	}
}
