// Package app wires the call source, the playback poller, the state
// machine and the screen stack together. The Coordinator is the only
// writer of application state: every event and every input action is
// handled on one loop, so none of the structures it owns need locks.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/config"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/contacts"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/playback"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/state"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
)

// commandTimeout bounds one outbound fire-and-forget command.
const commandTimeout = 5 * time.Second

// CallCommander is the outbound side of the call-control subprocess.
type CallCommander interface {
	Answer() error
	Hangup() error
	Call(address string) error
}

// Coordinator consumes both event streams and the input actions,
// drives state transitions, navigates screens and issues commands to
// the two external services.
type Coordinator struct {
	cfg     config.Config
	machine *state.Machine
	stack   *ui.Stack
	voip    CallCommander
	music   playback.Client
	dir     *contacts.Directory
	labels  *ui.Labels

	intake  chan event.Event
	actions <-chan ui.Action

	// Screens the coordinator feeds data into.
	nowPlaying *ui.NowPlayingScreen
	callStatus *ui.CallStatusScreen
	incoming   *ui.IncomingCallScreen
	outgoing   *ui.OutgoingCallScreen
	inCall     *ui.InCallScreen

	session    *CallSession
	registered bool
	lastPhase  event.PlaybackPhase
	volume     int

	log *slog.Logger
}

// Options carries the coordinator's collaborators.
type Options struct {
	Config   config.Config
	Display  ui.Display
	Voip     CallCommander
	Music    playback.Client
	Contacts *contacts.Directory
	Labels   *ui.Labels
	Intake   chan event.Event
	Actions  <-chan ui.Action
}

// New builds the coordinator, its state machine and all screens.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		cfg:     opts.Config,
		voip:    opts.Voip,
		music:   opts.Music,
		dir:     opts.Contacts,
		labels:  opts.Labels,
		intake:  opts.Intake,
		actions: opts.Actions,
		volume:  -1,
		log:     internal.GetLogger(),
	}

	c.machine = state.NewMachine(c)
	c.stack = ui.NewStack(opts.Display)

	c.nowPlaying = ui.NewNowPlayingScreen(opts.Labels, c)
	c.callStatus = ui.NewCallStatusScreen(opts.Labels, opts.Config.SIP.Identity)
	c.incoming = ui.NewIncomingCallScreen(opts.Labels, c)
	c.outgoing = ui.NewOutgoingCallScreen(opts.Labels, c)
	c.inCall = ui.NewInCallScreen(opts.Labels, c, c)

	c.stack.Register(ui.NewMenuScreen(opts.Labels, c))
	c.stack.Register(c.nowPlaying)
	c.stack.Register(ui.NewPlaylistsScreen(opts.Labels, c, c))
	c.stack.Register(ui.NewContactsScreen(opts.Labels, c, opts.Contacts))
	c.stack.Register(c.callStatus)
	c.stack.Register(c.incoming)
	c.stack.Register(c.outgoing)
	c.stack.Register(c.inCall)

	return c
}

// Registered implements state.GuardContext.
func (c *Coordinator) Registered() bool { return c.registered }

// State returns the current application state.
func (c *Coordinator) State() state.AppState { return c.machine.Current() }

// Stack exposes the navigation stack for inspection.
func (c *Coordinator) Stack() *ui.Stack { return c.stack }

// Run drains the intake until ctx is cancelled. It must be the only
// goroutine that ever calls into the machine, the stack or the session.
func (c *Coordinator) Run(ctx context.Context) {
	c.stack.Push(ui.ScreenMenu)
	c.log.Info("coordinator running")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("coordinator stopped")
			return
		case ev := <-c.intake:
			c.HandleEvent(ev)
		case a, ok := <-c.actions:
			if !ok {
				c.actions = nil
				continue
			}
			c.HandleAction(a)
		}
	}
}

// HandleEvent dispatches one event. Exported for tests, which drive the
// coordinator synchronously instead of through Run.
func (c *Coordinator) HandleEvent(ev event.Event) {
	switch ev := ev.(type) {
	case event.RegistrationChanged:
		c.handleRegistration(ev)
	case event.IncomingCall:
		c.handleIncomingCall(ev)
	case event.CallStateChanged:
		c.handleCallState(ev)
	case event.ConnectionLost:
		c.handleConnectionLost()
	case event.TrackChanged:
		c.handleTrackChanged(ev)
	case event.PlaybackStateChanged:
		c.handlePlaybackState(ev)
	case event.ConnectivityDegraded:
		c.handleConnectivityDegraded()
	default:
		c.log.Warn("unhandled event", "type", ev.EventType())
	}
}

// HandleAction routes one semantic input action to the current screen.
// Back pops non-overlay screens; overlays decide themselves what Back
// means (decline, hang up).
func (c *Coordinator) HandleAction(a ui.Action) {
	screen := c.stack.CurrentScreen()
	if screen == nil {
		return
	}
	if a == ui.ActionBack && !screen.Overlay() && screen.ID() != ui.ScreenMenu {
		c.Pop()
		return
	}
	screen.HandleAction(a)
	c.stack.RenderCurrent()
}

// ----- call handling -----

// musicAudible reports whether pausing is warranted for a call. The
// state machine answers for the combined states; the retained playback
// phase covers music left playing while the user navigated elsewhere.
func (c *Coordinator) musicAudible() bool {
	return c.machine.IsMusicPlaying() || c.lastPhase == event.PlaybackPlaying
}

func (c *Coordinator) handleIncomingCall(ev event.IncomingCall) {
	name := c.resolveCaller(ev.RawAddress)
	c.log.Info("incoming call", "address", ev.RawAddress, "name", name)

	if c.session == nil {
		audible := c.musicAudible()
		if audible {
			c.log.Info("pausing music for incoming call")
			c.sendMusic("pause", c.music.Pause)
			if c.machine.IsMusicPlaying() {
				c.machine.Transition(state.MusicPausedByCall, state.TriggerAutoPauseForCall)
			}
		}
		c.session = newCallSession(audible)
	}
	c.session.SetPeer(name, ev.RawAddress)

	c.machine.Transition(state.CallIncoming, state.TriggerIncomingCall)

	// Push is a no-op when the ring screen is already current, so a
	// re-printed detection line cannot deepen the stack.
	sessName, sessAddr := c.session.Peer()
	c.incoming.SetCaller(sessName, sessAddr)
	c.stack.Push(ui.ScreenIncomingCall)
	c.stack.RenderCurrent()
}

func (c *Coordinator) handleCallState(ev event.CallStateChanged) {
	c.log.Info("call state changed", "phase", ev.Phase.String())

	switch ev.Phase {
	case event.PhaseOutgoing:
		if c.session == nil {
			c.session = newCallSession(false)
		}
		c.machine.Transition(state.CallOutgoing, state.TriggerMakeCall)
		c.stack.Push(ui.ScreenOutgoingCall)

	case event.PhaseConnected, event.PhaseStreamsRunning:
		if c.session == nil {
			// Connected without a preceding ring or dial is a protocol
			// anomaly; keep going with an empty session.
			c.log.Warn("call connected without session")
			c.session = newCallSession(false)
		}
		// The machine is in a call state by now, so whether music was
		// paused for this call is the session's knowledge, not the
		// current state's.
		if c.session.MusicWasPlaying() {
			c.machine.Transition(state.CallActiveMusicPaused, state.TriggerCallAnswered)
		} else {
			c.machine.Transition(state.CallActive, state.TriggerCallConnected)
		}
		name, _ := c.session.Peer()
		c.inCall.SetPeer(name)
		c.stack.Push(ui.ScreenInCall)

	case event.PhaseReleased, event.PhaseError:
		c.handleCallEnded()
	}
}

// handleCallEnded unwinds the overlays and restores music in one place.
// The session is destroyed unconditionally before returning.
func (c *Coordinator) handleCallEnded() {
	c.log.Info("call ended")

	c.stack.PopWhile(ui.IsOverlay)

	wasPlaying := false
	if c.session != nil {
		wasPlaying = c.session.ConsumeMusicWasPlaying()
	}
	c.session = nil

	switch {
	case wasPlaying && c.cfg.Audio.AutoResumeAfterCall:
		c.log.Info("auto-resuming music after call")
		c.sendMusic("play", c.music.Play)
		// Registration may have been lost during the call; the resumed
		// state must not advertise VoIP readiness it no longer has.
		if c.registered {
			c.machine.Transition(state.MusicReadyVoIP, state.TriggerCallEndedResume)
		} else {
			c.machine.Transition(state.MusicReady, state.TriggerCallEndedResume)
		}
	case wasPlaying:
		c.log.Info("music stays paused after call")
		c.machine.Transition(state.MusicPaused, state.TriggerCallEndedNoResume)
	default:
		if c.machine.IsCallActive() {
			c.machine.Transition(state.CallIdle, state.TriggerCallEnded)
		}
	}
}

func (c *Coordinator) handleRegistration(ev event.RegistrationChanged) {
	c.log.Info("registration changed", "state", ev.State.String())
	c.registered = ev.State == event.RegistrationOK
	c.callStatus.SetRegistration(ev.State)

	if c.registered && c.machine.Current() == state.MusicReady {
		c.machine.Transition(state.MusicReadyVoIP, state.TriggerVoIPReady)
	}
	if !c.registered && c.machine.Current() == state.MusicReadyVoIP {
		c.machine.Transition(state.MusicReady, state.TriggerVoIPReady)
	}

	if id, ok := c.stack.Current(); ok && id == ui.ScreenCallStatus {
		c.stack.RenderCurrent()
	}
}

func (c *Coordinator) handleConnectionLost() {
	c.log.Error("call control connection lost")

	// Any call in flight is gone with the subprocess.
	c.stack.PopWhile(ui.IsOverlay)
	c.session = nil
	c.registered = false
	c.callStatus.SetRegistration(event.RegistrationNone)

	c.machine.Transition(state.Error, state.TriggerConnectionLost)
	c.stack.Push(ui.ScreenCallStatus)
	c.stack.RenderCurrent()
}

// resolveCaller maps a raw address to a display name. A miss or an
// empty address resolves to the unknown-caller label, never an error.
func (c *Coordinator) resolveCaller(rawAddress string) string {
	if rawAddress == "" {
		return c.labels.T("UnknownCaller")
	}
	if contact, ok := c.dir.Lookup(rawAddress); ok {
		return contact.Name
	}
	return c.labels.T("UnknownCaller")
}

// ----- music handling -----

func (c *Coordinator) handleTrackChanged(ev event.TrackChanged) {
	c.log.Info("track changed", "track", ev.Title, "artist", ev.Artist)
	c.nowPlaying.SetTrack(ev.Title, ev.Artist)
	c.nowPlaying.SetNotice("") // fresh data means the service recovered

	if id, ok := c.stack.Current(); ok && id == ui.ScreenNowPlaying {
		c.stack.RenderCurrent()
	}
}

func (c *Coordinator) handlePlaybackState(ev event.PlaybackStateChanged) {
	c.log.Info("playback state changed", "phase", ev.Phase.String())
	c.lastPhase = ev.Phase
	c.nowPlaying.SetPhase(ev.Phase)
	c.nowPlaying.SetNotice("")

	switch ev.Phase {
	case event.PlaybackStopped:
		if c.machine.IsMusicPlaying() {
			c.machine.Transition(state.MusicPaused, state.TriggerPlaybackStopped)
		}
	case event.PlaybackPaused:
		// Music paused for a call is tracked by its own states; only an
		// external pause moves the baseline.
		if c.machine.IsMusicPlaying() {
			c.machine.Transition(state.MusicPaused, state.TriggerPause)
		}
	case event.PlaybackPlaying:
		if c.machine.Current() == state.MusicPaused {
			c.machine.Transition(state.MusicReady, state.TriggerResume)
			if c.registered {
				c.machine.Transition(state.MusicReadyVoIP, state.TriggerVoIPReady)
			}
		}
	}

	if id, ok := c.stack.Current(); ok && id == ui.ScreenNowPlaying {
		c.stack.RenderCurrent()
	}
}

func (c *Coordinator) handleConnectivityDegraded() {
	c.log.Warn("playback connectivity degraded")
	c.nowPlaying.SetNotice(c.labels.T("DegradedBody"))

	if id, ok := c.stack.Current(); ok && id == ui.ScreenNowPlaying {
		c.stack.RenderCurrent()
	}
}

// ----- capabilities handed to screens -----

// Push implements ui.Navigator. Opening a screen carries its state
// transition when the table allows one.
func (c *Coordinator) Push(id ui.ScreenID) {
	switch id {
	case ui.ScreenNowPlaying:
		if c.machine.CanTransition(state.MusicReady, state.TriggerOpenMusic) {
			c.machine.Transition(state.MusicReady, state.TriggerOpenMusic)
		}
	case ui.ScreenPlaylists:
		if c.machine.CanTransition(state.Browsing, state.TriggerBrowse) {
			c.machine.Transition(state.Browsing, state.TriggerBrowse)
		}
	case ui.ScreenContacts, ui.ScreenCallStatus:
		if c.machine.CanTransition(state.CallIdle, state.TriggerOpenVoIP) {
			c.machine.Transition(state.CallIdle, state.TriggerOpenVoIP)
		}
	}
	c.stack.Push(id)
}

// Pop implements ui.Navigator.
func (c *Coordinator) Pop() {
	c.stack.Pop()
	if id, ok := c.stack.Current(); ok && id == ui.ScreenMenu {
		if c.machine.Current() == state.Error {
			// Leaving the error screen restarts normal navigation.
			c.machine.Transition(state.Menu, state.TriggerReset)
		} else if c.machine.CanTransition(state.Menu, state.TriggerBack) {
			c.machine.Transition(state.Menu, state.TriggerBack)
		}
	}
}

// Answer implements ui.CallControl.
func (c *Coordinator) Answer() {
	c.log.Info("answering call")
	if err := c.voip.Answer(); err != nil {
		c.log.Error("answer failed", "error", err.Error())
	}
}

// Hangup implements ui.CallControl.
func (c *Coordinator) Hangup() {
	c.log.Info("hanging up")
	if err := c.voip.Hangup(); err != nil {
		c.log.Error("hangup failed", "error", err.Error())
	}
}

// PlaceCall implements ui.CallControl.
func (c *Coordinator) PlaceCall(address, name string) {
	// The dial edge is checked after any auto-pause moves the machine,
	// so the eligibility check here is on registration and call state.
	if !c.registered || c.machine.IsCallActive() || c.machine.Current() == state.Error {
		c.log.Warn("cannot place call", "state", c.machine.Current().String(), "registered", c.registered)
		return
	}

	c.log.Info("placing call", "address", address, "name", name)

	audible := c.musicAudible()
	if audible {
		c.sendMusic("pause", c.music.Pause)
		if c.machine.IsMusicPlaying() {
			c.machine.Transition(state.MusicPausedByCall, state.TriggerAutoPauseForCall)
		}
	}
	c.session = newCallSession(audible)
	c.session.SetPeer(name, address)

	if err := c.voip.Call("sip:" + contacts.Normalize(address)); err != nil {
		c.log.Error("call command failed", "error", err.Error())
		c.session = nil
		return
	}

	c.machine.Transition(state.CallOutgoing, state.TriggerMakeCall)
	c.outgoing.SetCallee(name, address)
	c.stack.Push(ui.ScreenOutgoingCall)
}

// TogglePlayback implements ui.MusicControl.
func (c *Coordinator) TogglePlayback() {
	if c.machine.IsMusicPlaying() || c.lastPhase == event.PlaybackPlaying {
		c.sendMusic("pause", c.music.Pause)
		c.machine.Transition(state.MusicPaused, state.TriggerPause)
		return
	}
	c.sendMusic("play", c.music.Play)
	if c.machine.Current() == state.MusicPaused {
		c.machine.Transition(state.MusicReady, state.TriggerResume)
	}
	if c.registered {
		c.machine.Transition(state.MusicReadyVoIP, state.TriggerVoIPReady)
	}
}

// NextTrack implements ui.MusicControl.
func (c *Coordinator) NextTrack() { c.sendMusic("next", c.music.Next) }

// PreviousTrack implements ui.MusicControl.
func (c *Coordinator) PreviousTrack() { c.sendMusic("previous", c.music.Previous) }

// VolumeUp implements ui.MusicControl.
func (c *Coordinator) VolumeUp() { c.adjustVolume(10) }

// VolumeDown implements ui.MusicControl.
func (c *Coordinator) VolumeDown() { c.adjustVolume(-10) }

func (c *Coordinator) adjustVolume(delta int) {
	if c.volume < 0 {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		v, err := c.music.Volume(ctx)
		cancel()
		if err != nil {
			c.log.Warn("volume query failed", "error", err.Error())
			v = 70
		}
		c.volume = v
	}

	c.volume += delta
	if c.volume < 0 {
		c.volume = 0
	}
	if c.volume > 100 {
		c.volume = 100
	}

	vol := c.volume
	c.sendMusic("set_volume", func(ctx context.Context) error {
		return c.music.SetVolume(ctx, vol)
	})
	c.nowPlaying.SetVolume(vol)
}

// LoadPlaylist implements ui.MusicControl.
func (c *Coordinator) LoadPlaylist(uri string) {
	c.log.Info("loading playlist", "uri", uri)
	c.sendMusic("load_playlist", func(ctx context.Context) error {
		return c.music.LoadPlaylist(ctx, uri)
	})

	if c.machine.CanTransition(state.MusicReadyVoIP, state.TriggerLoadPlaylist) {
		c.machine.Transition(state.MusicReadyVoIP, state.TriggerLoadPlaylist)
	} else if c.machine.CanTransition(state.MusicReady, state.TriggerLoadPlaylist) {
		c.machine.Transition(state.MusicReady, state.TriggerLoadPlaylist)
	}
	c.stack.Push(ui.ScreenNowPlaying)
}

// Playlists implements ui.PlaylistSource. The query is synchronous and
// bounded; an unreachable service yields an empty list, not an error.
func (c *Coordinator) Playlists() []playback.Playlist {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	playlists, err := c.music.Playlists(ctx)
	if err != nil {
		c.log.Warn("playlist query failed", "error", err.Error())
		return nil
	}
	return playlists
}

// sendMusic issues one playback command fire-and-forget. In-flight
// commands are not cancelled on shutdown.
func (c *Coordinator) sendMusic(op string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			c.log.Warn("playback command failed", "op", op, "error", err.Error())
		}
	}()
}
