package app

// CallSession is the ephemeral record for one call, alive from the
// first event indicating a live call until the terminal phase. It owns
// the pre-call music context so nothing outside the session can drift
// from it.
type CallSession struct {
	peerName    string
	peerAddress string

	musicWasPlaying bool
	consumed        bool
}

// newCallSession opens a session. musicWasPlaying is fixed at creation;
// it is set exactly once per session lifetime.
func newCallSession(musicWasPlaying bool) *CallSession {
	return &CallSession{musicWasPlaying: musicWasPlaying}
}

// SetPeer records the remote party. The first non-empty name wins so a
// repeated ring line cannot overwrite a resolved contact with "Unknown".
func (s *CallSession) SetPeer(name, address string) {
	if s.peerName == "" {
		s.peerName = name
	}
	if s.peerAddress == "" {
		s.peerAddress = address
	}
}

// Peer returns the recorded remote party.
func (s *CallSession) Peer() (name, address string) {
	return s.peerName, s.peerAddress
}

// MusicWasPlaying reports the pre-call music flag without clearing it.
func (s *CallSession) MusicWasPlaying() bool {
	return !s.consumed && s.musicWasPlaying
}

// ConsumeMusicWasPlaying reads and clears the pre-call music flag. It
// answers true at most once per session.
func (s *CallSession) ConsumeMusicWasPlaying() bool {
	if s.consumed {
		return false
	}
	s.consumed = true
	was := s.musicWasPlaying
	s.musicWasPlaying = false
	return was
}
