// Package playback talks to the music service. Two backends implement
// the same Client interface: the Mopidy HTTP JSON-RPC API and the MPD
// protocol. Change detection is done by the Poller, which diffs
// snapshots on a fixed interval and emits typed music events.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
)

// ErrUnreachable indicates the playback service did not answer.
var ErrUnreachable = errors.New("playback: service unreachable")

// OpError wraps a backend failure with the operation that hit it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("playback: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Track is the playback service's current track.
type Track struct {
	ID     string // service URI, the identity used for change detection
	Title  string
	Artist string
	Album  string
	Length int // milliseconds, 0 when unknown
}

// ArtistString returns the artist or a placeholder.
func (t *Track) ArtistString() string {
	if t == nil || strings.TrimSpace(t.Artist) == "" {
		return "Unknown Artist"
	}
	return t.Artist
}

// Playlist is one loadable playlist.
type Playlist struct {
	URI  string
	Name string
}

// Client is the request/response surface of the playback service.
// Implementations are safe for use from multiple goroutines.
type Client interface {
	// Ping verifies the service answers.
	Ping(ctx context.Context) error
	// CurrentTrack returns the current track, or nil when nothing is
	// loaded.
	CurrentTrack(ctx context.Context) (*Track, error)
	// State returns the playback phase.
	State(ctx context.Context) (event.PlaybackPhase, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	SetVolume(ctx context.Context, volume int) error
	Volume(ctx context.Context) (int, error)

	Playlists(ctx context.Context) ([]Playlist, error)
	// LoadPlaylist replaces the tracklist with the playlist and starts
	// playback.
	LoadPlaylist(ctx context.Context, uri string) error
}
