package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/config"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/contacts"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/playback"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/state"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
)

// fakeCommander records call-control commands.
type fakeCommander struct {
	mu      sync.Mutex
	answers int
	hangups int
	calls   []string
}

func (f *fakeCommander) Answer() error { f.mu.Lock(); defer f.mu.Unlock(); f.answers++; return nil }
func (f *fakeCommander) Hangup() error { f.mu.Lock(); defer f.mu.Unlock(); f.hangups++; return nil }
func (f *fakeCommander) Call(address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)
	return nil
}

func (f *fakeCommander) calledAddresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// countingClient is a playback service that only counts commands.
// Playback commands are dispatched on their own goroutines, so the
// counters are locked.
type countingClient struct {
	mu     sync.Mutex
	pauses int
	plays  int
	nexts  int
}

func (c *countingClient) Ping(context.Context) error { return nil }
func (c *countingClient) CurrentTrack(context.Context) (*playback.Track, error) {
	return nil, nil
}
func (c *countingClient) State(context.Context) (event.PlaybackPhase, error) {
	return event.PlaybackStopped, nil
}
func (c *countingClient) Play(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return nil
}
func (c *countingClient) Pause(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauses++
	return nil
}
func (c *countingClient) Stop(context.Context) error     { return nil }
func (c *countingClient) Next(context.Context) error     { c.mu.Lock(); defer c.mu.Unlock(); c.nexts++; return nil }
func (c *countingClient) Previous(context.Context) error { return nil }
func (c *countingClient) SetVolume(context.Context, int) error {
	return nil
}
func (c *countingClient) Volume(context.Context) (int, error) { return 70, nil }
func (c *countingClient) Playlists(context.Context) ([]playback.Playlist, error) {
	return []playback.Playlist{{URI: "m3u:road.m3u", Name: "Road Trip"}}, nil
}
func (c *countingClient) LoadPlaylist(context.Context, string) error { return nil }

func (c *countingClient) pauseCount() int { c.mu.Lock(); defer c.mu.Unlock(); return c.pauses }
func (c *countingClient) playCount() int  { c.mu.Lock(); defer c.mu.Unlock(); return c.plays }

// waitFor polls until cond holds or the deadline passes. Fire-and-forget
// playback commands land on other goroutines, so count assertions wait.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestCoordinator(t *testing.T, autoResume bool) (*Coordinator, *fakeCommander, *countingClient) {
	t.Helper()

	cfg := config.Default()
	cfg.Audio.AutoResumeAfterCall = autoResume

	commander := &fakeCommander{}
	music := &countingClient{}
	dir := contacts.NewDirectory([]Contact{
		{Name: "Mom", Address: "sip:mom@example.com", Favorite: true},
	})

	c := New(Options{
		Config:   cfg,
		Display:  ui.NewTerminalDisplay(io.Discard, 8),
		Voip:     commander,
		Music:    music,
		Contacts: dir,
		Labels:   ui.NewLabels("en", ""),
		Intake:   make(chan event.Event, 16),
		Actions:  make(chan ui.Action),
	})
	c.stack.Push(ui.ScreenMenu)
	return c, commander, music
}

// Contact aliases the contacts type for test readability.
type Contact = contacts.Contact

// startMusicRegistered brings the coordinator to the state of a
// registered device with music audibly playing on the now-playing
// screen.
func startMusicRegistered(t *testing.T, c *Coordinator) {
	t.Helper()
	c.Push(ui.ScreenNowPlaying)
	c.HandleEvent(event.NewRegistrationChanged(event.RegistrationOK))
	c.HandleEvent(event.NewPlaybackStateChanged(event.PlaybackPlaying))
	if c.State() != state.MusicReadyVoIP {
		t.Fatalf("setup state = %s, want %s", c.State(), state.MusicReadyVoIP)
	}
}

func currentScreen(t *testing.T, c *Coordinator) ui.ScreenID {
	t.Helper()
	id, ok := c.Stack().Current()
	if !ok {
		t.Fatal("no current screen")
	}
	return id
}

func TestIncomingCallPausesMusic(t *testing.T) {
	c, _, music := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))

	waitFor(t, "pause command", func() bool { return music.pauseCount() == 1 })
	if c.State() != state.CallIncoming {
		t.Errorf("state = %s, want %s", c.State(), state.CallIncoming)
	}
	if id := currentScreen(t, c); id != ui.ScreenIncomingCall {
		t.Errorf("current screen = %s, want %s", id, ui.ScreenIncomingCall)
	}
	if c.session == nil {
		t.Fatal("no session opened for the call")
	}
	if !c.session.musicWasPlaying {
		t.Error("session did not record that music was playing")
	}
	if name, _ := c.session.Peer(); name != "Mom" {
		t.Errorf("session peer = %q, want Mom", name)
	}
}

func TestRepeatedRingLinesDoNotStack(t *testing.T) {
	c, _, music := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	before := c.Stack().Depth()
	for i := 0; i < 3; i++ {
		c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	}

	if got := c.Stack().Depth(); got != before+1 {
		t.Errorf("depth = %d after repeated rings, want %d", got, before+1)
	}
	// A single pause for the whole ring burst.
	waitFor(t, "pause command", func() bool { return music.pauseCount() >= 1 })
	time.Sleep(20 * time.Millisecond)
	if n := music.pauseCount(); n != 1 {
		t.Errorf("pause sent %d times, want 1", n)
	}
}

func TestUnknownCallerStillRings(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewIncomingCall("", ""))

	if c.State() != state.CallIncoming {
		t.Errorf("state = %s, want %s", c.State(), state.CallIncoming)
	}
	if c.session == nil {
		t.Fatal("no session for address-less ring")
	}
	if name, _ := c.session.Peer(); name != "Unknown" {
		t.Errorf("peer name = %q, want unknown-caller label", name)
	}
}

func TestCallEndedAutoResume(t *testing.T) {
	c, _, music := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseConnected))
	if c.State() != state.CallActiveMusicPaused {
		t.Fatalf("state = %s after connect, want %s", c.State(), state.CallActiveMusicPaused)
	}
	if id := currentScreen(t, c); id != ui.ScreenInCall {
		t.Fatalf("current screen = %s, want %s", id, ui.ScreenInCall)
	}

	c.HandleEvent(event.NewCallStateChanged(event.PhaseReleased))

	waitFor(t, "play command", func() bool { return music.playCount() == 1 })
	if c.State() != state.MusicReadyVoIP {
		t.Errorf("state = %s after release, want %s", c.State(), state.MusicReadyVoIP)
	}
	if id := currentScreen(t, c); id != ui.ScreenNowPlaying {
		t.Errorf("current screen = %s, want pre-call %s", id, ui.ScreenNowPlaying)
	}
	if c.session != nil {
		t.Error("session survived call termination")
	}
}

func TestCallEndedNoAutoResume(t *testing.T) {
	c, _, music := newTestCoordinator(t, false)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseConnected))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseReleased))

	if c.State() != state.MusicPaused {
		t.Errorf("state = %s, want %s", c.State(), state.MusicPaused)
	}
	if c.session != nil {
		t.Error("session survived call termination")
	}
	time.Sleep(20 * time.Millisecond)
	if n := music.playCount(); n != 0 {
		t.Errorf("play sent %d times with auto-resume off, want 0", n)
	}
}

func TestDeclinedCallWithoutPausedMusic(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	c.Push(ui.ScreenContacts)
	c.HandleEvent(event.NewRegistrationChanged(event.RegistrationOK))

	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	if c.State() != state.CallIncoming {
		t.Fatalf("state = %s, want %s", c.State(), state.CallIncoming)
	}

	c.HandleEvent(event.NewCallStateChanged(event.PhaseReleased))
	if c.State() != state.CallIdle {
		t.Errorf("state = %s after decline, want %s", c.State(), state.CallIdle)
	}
	if id := currentScreen(t, c); id != ui.ScreenContacts {
		t.Errorf("current screen = %s, want %s", id, ui.ScreenContacts)
	}
}

func TestPlaceCall(t *testing.T) {
	c, commander, music := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.PlaceCall("SIP:MOM@EXAMPLE.COM", "Mom")

	calls := commander.calledAddresses()
	if len(calls) != 1 || calls[0] != "sip:mom@example.com" {
		t.Fatalf("calls = %v, want [sip:mom@example.com]", calls)
	}
	waitFor(t, "pause command", func() bool { return music.pauseCount() == 1 })
	if c.State() != state.CallOutgoing {
		t.Errorf("state = %s, want %s", c.State(), state.CallOutgoing)
	}
	if id := currentScreen(t, c); id != ui.ScreenOutgoingCall {
		t.Errorf("current screen = %s, want %s", id, ui.ScreenOutgoingCall)
	}
	if c.session == nil || !c.session.musicWasPlaying {
		t.Error("session missing or pre-call music flag not set")
	}
}

func TestPlaceCallBlockedWhenUnregistered(t *testing.T) {
	c, commander, _ := newTestCoordinator(t, true)

	c.PlaceCall("sip:mom@example.com", "Mom")

	if n := len(commander.calledAddresses()); n != 0 {
		t.Errorf("call command sent %d times while unregistered, want 0", n)
	}
	if c.State() != state.Menu {
		t.Errorf("state = %s, want %s", c.State(), state.Menu)
	}
	if c.session != nil {
		t.Error("session opened for a blocked call")
	}
}

func TestAnswerAndHangupForwardToCommander(t *testing.T) {
	c, commander, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)
	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))

	c.Answer()
	c.Hangup()

	commander.mu.Lock()
	defer commander.mu.Unlock()
	if commander.answers != 1 || commander.hangups != 1 {
		t.Errorf("answers = %d hangups = %d, want 1 and 1", commander.answers, commander.hangups)
	}
}

func TestConnectionLostEntersErrorState(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)
	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseConnected))

	c.HandleEvent(event.NewConnectionLost())

	if c.State() != state.Error {
		t.Errorf("state = %s, want %s", c.State(), state.Error)
	}
	if c.session != nil {
		t.Error("session survived connection loss")
	}
	if c.Registered() {
		t.Error("still registered after connection loss")
	}
	if id := currentScreen(t, c); id != ui.ScreenCallStatus {
		t.Errorf("current screen = %s, want %s", id, ui.ScreenCallStatus)
	}
}

func TestErrorStateResetsOnReturnToMenu(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)
	c.HandleEvent(event.NewConnectionLost())
	if c.State() != state.Error {
		t.Fatalf("state = %s, want %s", c.State(), state.Error)
	}

	// Back out until the menu is current again.
	for i := 0; i < 5; i++ {
		if id := currentScreen(t, c); id == ui.ScreenMenu {
			break
		}
		c.HandleAction(ui.ActionBack)
	}

	if id := currentScreen(t, c); id != ui.ScreenMenu {
		t.Fatalf("current screen = %s, want %s", id, ui.ScreenMenu)
	}
	if c.State() != state.Menu {
		t.Errorf("state = %s after returning to menu, want %s", c.State(), state.Menu)
	}
}

func TestRegistrationUpgradesMusicState(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	c.Push(ui.ScreenNowPlaying)
	if c.State() != state.MusicReady {
		t.Fatalf("state = %s, want %s", c.State(), state.MusicReady)
	}

	c.HandleEvent(event.NewRegistrationChanged(event.RegistrationOK))
	if c.State() != state.MusicReadyVoIP {
		t.Errorf("state = %s after registration, want %s", c.State(), state.MusicReadyVoIP)
	}

	c.HandleEvent(event.NewRegistrationChanged(event.RegistrationFailed))
	if c.State() != state.MusicReady {
		t.Errorf("state = %s after registration loss, want %s", c.State(), state.MusicReady)
	}
}

func TestExternalStopMovesBaseline(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewPlaybackStateChanged(event.PlaybackStopped))
	if c.State() != state.MusicPaused {
		t.Errorf("state = %s after external stop, want %s", c.State(), state.MusicPaused)
	}
}

func TestCallEndedResumeAfterRegistrationLoss(t *testing.T) {
	c, _, music := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewIncomingCall("mom@example.com", ""))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseConnected))
	c.HandleEvent(event.NewRegistrationChanged(event.RegistrationFailed))
	c.HandleEvent(event.NewCallStateChanged(event.PhaseReleased))

	waitFor(t, "play command", func() bool { return music.playCount() == 1 })
	// Resumed music must not land in a state advertising VoIP readiness
	// the device no longer has.
	if c.State() != state.MusicReady {
		t.Errorf("state = %s after resume without registration, want %s", c.State(), state.MusicReady)
	}
}

func TestExternalPauseMovesBaseline(t *testing.T) {
	c, _, _ := newTestCoordinator(t, true)
	startMusicRegistered(t, c)

	c.HandleEvent(event.NewPlaybackStateChanged(event.PlaybackPaused))
	if c.State() != state.MusicPaused {
		t.Errorf("state = %s after external pause, want %s", c.State(), state.MusicPaused)
	}

	c.HandleEvent(event.NewPlaybackStateChanged(event.PlaybackPlaying))
	if c.State() != state.MusicReadyVoIP {
		t.Errorf("state = %s after external resume, want %s", c.State(), state.MusicReadyVoIP)
	}
}

func TestCallSessionConsumeOnce(t *testing.T) {
	s := newCallSession(true)
	if !s.MusicWasPlaying() {
		t.Fatal("MusicWasPlaying = false before consume, want true")
	}
	if !s.ConsumeMusicWasPlaying() {
		t.Fatal("first consume = false, want true")
	}
	if s.ConsumeMusicWasPlaying() {
		t.Error("second consume = true, want false")
	}
	if s.MusicWasPlaying() {
		t.Error("MusicWasPlaying = true after consume, want false")
	}

	s = newCallSession(false)
	if s.ConsumeMusicWasPlaying() {
		t.Error("consume = true for session opened without music")
	}
}

func TestCallSessionFirstPeerWins(t *testing.T) {
	s := newCallSession(false)
	s.SetPeer("Mom", "mom@example.com")
	s.SetPeer("Unknown", "other@example.net")
	name, addr := s.Peer()
	if name != "Mom" || addr != "mom@example.com" {
		t.Errorf("peer = %q %q, want Mom mom@example.com", name, addr)
	}
}
