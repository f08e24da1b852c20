package playback

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
)

// snapshot is the last-observed playback state, used for diffing.
type snapshot struct {
	trackID string
	title   string
	artist  string
	phase   event.PlaybackPhase
	valid   bool
}

// Poller queries the playback service on a fixed interval and emits a
// music event only when something actually changed. Query failures skip
// the cycle without touching the snapshot; after the configured number
// of consecutive failures it emits ConnectivityDegraded once and keeps
// retrying silently until the service answers again.
type Poller struct {
	client    Client
	interval  time.Duration
	threshold int
	intake    chan<- event.Event

	snap     snapshot
	failures int
	degraded bool

	running *atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	log     *slog.Logger
}

// NewPoller creates a poller. interval and failureThreshold come from
// configuration; zero values fall back to 2s and 3.
func NewPoller(client Client, interval time.Duration, failureThreshold int, intake chan<- event.Event) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Poller{
		client:    client,
		interval:  interval,
		threshold: failureThreshold,
		intake:    intake,
		running:   atomic.NewBool(false),
		done:      make(chan struct{}),
		log:       internal.GetLogger(),
	}
}

// Start launches the poll loop.
func (p *Poller) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.cycle(ctx)
			}
		}
	}()

	p.log.Info("playback poller started", "interval", p.interval.String(), "failure_threshold", p.threshold)
}

// cycle runs one poll: query track and phase, diff against the
// snapshot, emit what changed.
func (p *Poller) cycle(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	track, err := p.client.CurrentTrack(qctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	phase, err := p.client.State(qctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}

	if p.failures > 0 || p.degraded {
		p.log.Info("playback service recovered", "failures", p.failures)
	}
	p.failures = 0
	p.degraded = false

	var trackID, title, artist string
	if track != nil {
		trackID, title, artist = track.ID, track.Title, track.Artist
	}

	trackChanged := !p.snap.valid && track != nil || p.snap.valid && trackID != p.snap.trackID
	phaseChanged := !p.snap.valid || phase != p.snap.phase

	p.snap = snapshot{trackID: trackID, title: title, artist: artist, phase: phase, valid: true}

	if trackChanged {
		select {
		case p.intake <- event.NewTrackChanged(trackID, title, artist):
		case <-ctx.Done():
			return
		}
	}
	if phaseChanged {
		select {
		case p.intake <- event.NewPlaybackStateChanged(phase):
		case <-ctx.Done():
			return
		}
	}
}

// fail records one failed cycle. The retained snapshot is not mutated,
// so a flapping service cannot fake a change.
func (p *Poller) fail(ctx context.Context, err error) {
	p.failures++
	p.log.Debug("poll cycle failed", "failures", p.failures, "error", err.Error())

	if p.failures >= p.threshold && !p.degraded {
		p.degraded = true
		select {
		case p.intake <- event.NewConnectivityDegraded():
		case <-ctx.Done():
			return
		}
		p.log.Warn("playback connectivity degraded", "consecutive_failures", p.failures)
	}
}

// Stop cancels the loop and joins it, bounded by ctx.
func (p *Poller) Stop(ctx context.Context) {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	select {
	case <-p.done:
	case <-ctx.Done():
	}
	p.log.Info("playback poller stopped")
}
