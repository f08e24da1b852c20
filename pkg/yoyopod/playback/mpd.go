package playback

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
)

// MPDClient implements Client over the MPD protocol. Mopidy exposes the
// same core through Mopidy-MPD, and a plain mpd server works too, so
// this backend is useful on setups without the HTTP frontend.
//
// The MPD protocol has no request cancellation; the context is only
// checked before each command, and the dial/read deadlines come from the
// protocol library.
type MPDClient struct {
	addr     string
	password string

	mu   sync.Mutex
	conn *mpd.Client
	log  *slog.Logger
}

// NewMPDClient creates a client for the given tcp address
// (e.g. localhost:6600). The connection is established lazily and
// re-dialed after any command failure.
func NewMPDClient(addr, password string) *MPDClient {
	return &MPDClient{
		addr:     addr,
		password: password,
		log:      internal.GetLogger(),
	}
}

// do runs fn against a live connection, dialing if needed. On failure
// the connection is discarded so the next call re-dials.
func (c *MPDClient) do(ctx context.Context, op string, fn func(conn *mpd.Client) error) error {
	if err := ctx.Err(); err != nil {
		return &OpError{Op: op, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := mpd.DialAuthenticated("tcp", c.addr, c.password)
		if err != nil {
			return &OpError{Op: op, Err: err}
		}
		c.conn = conn
	}

	if err := fn(c.conn); err != nil {
		c.conn.Close()
		c.conn = nil
		return &OpError{Op: op, Err: err}
	}
	return nil
}

func (c *MPDClient) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(conn *mpd.Client) error {
		return conn.Ping()
	})
}

func (c *MPDClient) CurrentTrack(ctx context.Context) (*Track, error) {
	var track *Track
	err := c.do(ctx, "currentsong", func(conn *mpd.Client) error {
		attrs, err := conn.CurrentSong()
		if err != nil {
			return err
		}
		if len(attrs) == 0 {
			track = nil
			return nil
		}
		id := attrs["file"]
		if id == "" {
			id = attrs["Id"]
		}
		length := 0
		if t, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
			length = int(t * 1000)
		}
		track = &Track{
			ID:     id,
			Title:  attrs["Title"],
			Artist: attrs["Artist"],
			Album:  attrs["Album"],
			Length: length,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (c *MPDClient) State(ctx context.Context) (event.PlaybackPhase, error) {
	phase := event.PlaybackStopped
	err := c.do(ctx, "status", func(conn *mpd.Client) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		switch status["state"] {
		case "play":
			phase = event.PlaybackPlaying
		case "pause":
			phase = event.PlaybackPaused
		default:
			phase = event.PlaybackStopped
		}
		return nil
	})
	if err != nil {
		return event.PlaybackStopped, err
	}
	return phase, nil
}

func (c *MPDClient) Play(ctx context.Context) error {
	return c.do(ctx, "play", func(conn *mpd.Client) error {
		return conn.Pause(false)
	})
}

func (c *MPDClient) Pause(ctx context.Context) error {
	return c.do(ctx, "pause", func(conn *mpd.Client) error {
		return conn.Pause(true)
	})
}

func (c *MPDClient) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", func(conn *mpd.Client) error {
		return conn.Stop()
	})
}

func (c *MPDClient) Next(ctx context.Context) error {
	return c.do(ctx, "next", func(conn *mpd.Client) error {
		return conn.Next()
	})
}

func (c *MPDClient) Previous(ctx context.Context) error {
	return c.do(ctx, "previous", func(conn *mpd.Client) error {
		return conn.Previous()
	})
}

func (c *MPDClient) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return c.do(ctx, "setvol", func(conn *mpd.Client) error {
		return conn.SetVolume(volume)
	})
}

func (c *MPDClient) Volume(ctx context.Context) (int, error) {
	volume := 0
	err := c.do(ctx, "status", func(conn *mpd.Client) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		volume, _ = strconv.Atoi(status["volume"])
		return nil
	})
	if err != nil {
		return 0, err
	}
	return volume, nil
}

func (c *MPDClient) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	err := c.do(ctx, "listplaylists", func(conn *mpd.Client) error {
		raw, err := conn.ListPlaylists()
		if err != nil {
			return err
		}
		playlists = make([]Playlist, 0, len(raw))
		for _, attrs := range raw {
			name := attrs["playlist"]
			playlists = append(playlists, Playlist{URI: name, Name: name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

func (c *MPDClient) LoadPlaylist(ctx context.Context, uri string) error {
	return c.do(ctx, "load", func(conn *mpd.Client) error {
		if err := conn.Clear(); err != nil {
			return err
		}
		if err := conn.PlaylistLoad(uri, -1, -1); err != nil {
			return err
		}
		return conn.Play(0)
	})
}

// Close tears down the connection if one is open.
func (c *MPDClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
