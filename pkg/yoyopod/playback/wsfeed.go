package playback

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/atomic"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
)

// EventFeed listens on Mopidy's websocket event stream and forwards
// playback changes into the intake without waiting for the next poll.
// The feed is best-effort: the poller remains the source of truth, and
// a dead websocket only costs latency. Dial failures retry with backoff
// until stopped.
type EventFeed struct {
	url    string
	intake chan<- event.Event

	running *atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	log     *slog.Logger
}

// NewEventFeed creates a feed for the given base URL
// (e.g. http://localhost:6680); the websocket endpoint is derived from
// it.
func NewEventFeed(baseURL string, intake chan<- event.Event) *EventFeed {
	wsURL := strings.Replace(baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	return &EventFeed{
		url:     wsURL + "/mopidy/ws",
		intake:  intake,
		running: atomic.NewBool(false),
		done:    make(chan struct{}),
		log:     internal.GetLogger(),
	}
}

// mopidyWSEvent is the wire shape of Mopidy websocket events. Only the
// fields this feed cares about are declared.
type mopidyWSEvent struct {
	Event   string `json:"event"`
	TLTrack struct {
		Track *mopidyTrack `json:"track"`
	} `json:"tl_track"`
	NewState string `json:"new_state"`
}

// Start launches the listen loop.
func (f *EventFeed) Start() {
	if !f.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	go func() {
		defer close(f.done)

		backoff := time.Second
		for ctx.Err() == nil {
			if err := f.listen(ctx); err != nil && ctx.Err() == nil {
				f.log.Debug("event feed disconnected", "error", err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}()

	f.log.Info("mopidy event feed started", "url", f.url)
}

func (f *EventFeed) listen(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	f.log.Info("mopidy event feed connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var ev mopidyWSEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Not every frame on this socket is an event.
			continue
		}
		f.forward(ctx, ev)
	}
}

func (f *EventFeed) forward(ctx context.Context, ev mopidyWSEvent) {
	var out []event.Event

	switch ev.Event {
	case "track_playback_started":
		if ev.TLTrack.Track != nil {
			t := ev.TLTrack.Track.toTrack()
			out = append(out, event.NewTrackChanged(t.ID, t.Title, t.Artist))
		}
		out = append(out, event.NewPlaybackStateChanged(event.PlaybackPlaying))
	case "track_playback_paused":
		out = append(out, event.NewPlaybackStateChanged(event.PlaybackPaused))
	case "track_playback_resumed":
		out = append(out, event.NewPlaybackStateChanged(event.PlaybackPlaying))
	case "track_playback_ended", "playback_state_changed":
		switch ev.NewState {
		case "playing":
			out = append(out, event.NewPlaybackStateChanged(event.PlaybackPlaying))
		case "paused":
			out = append(out, event.NewPlaybackStateChanged(event.PlaybackPaused))
		case "stopped":
			out = append(out, event.NewPlaybackStateChanged(event.PlaybackStopped))
		}
	}

	for _, e := range out {
		select {
		case f.intake <- e:
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the loop and joins it, bounded by ctx.
func (f *EventFeed) Stop(ctx context.Context) {
	if !f.running.CompareAndSwap(true, false) {
		return
	}
	f.cancel()
	select {
	case <-f.done:
	case <-ctx.Done():
	}
	f.log.Info("mopidy event feed stopped")
}
