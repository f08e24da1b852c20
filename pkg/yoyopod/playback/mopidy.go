package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
)

// MopidyClient talks to the Mopidy HTTP JSON-RPC endpoint.
type MopidyClient struct {
	rpcURL string
	http   *http.Client
	log    *slog.Logger
}

// NewMopidyClient creates a client for the given base URL
// (e.g. http://localhost:6680).
func NewMopidyClient(baseURL string, timeout time.Duration) *MopidyClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MopidyClient{
		rpcURL: baseURL + "/mopidy/rpc",
		http:   &http.Client{Timeout: timeout},
		log:    internal.GetLogger(),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call issues one JSON-RPC request and unmarshals the result into out
// (out may be nil when the result does not matter).
func (c *MopidyClient) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return &OpError{Op: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return &OpError{Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &OpError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &OpError{Op: method, Err: fmt.Errorf("status %s", resp.Status)}
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return &OpError{Op: method, Err: err}
	}
	if rr.Error != nil {
		return &OpError{Op: method, Err: fmt.Errorf("rpc error %d: %s", rr.Error.Code, rr.Error.Message)}
	}
	if out != nil && len(rr.Result) > 0 {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return &OpError{Op: method, Err: err}
		}
	}
	return nil
}

func (c *MopidyClient) Ping(ctx context.Context) error {
	var version string
	if err := c.call(ctx, "core.get_version", nil, &version); err != nil {
		return err
	}
	c.log.Debug("mopidy reachable", "version", version)
	return nil
}

// mopidyTrack mirrors the track shape in Mopidy API responses.
type mopidyTrack struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Length int `json:"length"`
}

func (mt *mopidyTrack) toTrack() *Track {
	artist := ""
	for i, a := range mt.Artists {
		if i > 0 {
			artist += ", "
		}
		artist += a.Name
	}
	return &Track{
		ID:     mt.URI,
		Title:  mt.Name,
		Artist: artist,
		Album:  mt.Album.Name,
		Length: mt.Length,
	}
}

func (c *MopidyClient) CurrentTrack(ctx context.Context) (*Track, error) {
	var tl struct {
		Track *mopidyTrack `json:"track"`
	}
	if err := c.call(ctx, "core.playback.get_current_tl_track", nil, &tl); err != nil {
		return nil, err
	}
	if tl.Track == nil {
		return nil, nil
	}
	return tl.Track.toTrack(), nil
}

func (c *MopidyClient) State(ctx context.Context) (event.PlaybackPhase, error) {
	var raw string
	if err := c.call(ctx, "core.playback.get_state", nil, &raw); err != nil {
		return event.PlaybackStopped, err
	}
	switch raw {
	case "playing":
		return event.PlaybackPlaying, nil
	case "paused":
		return event.PlaybackPaused, nil
	default:
		return event.PlaybackStopped, nil
	}
}

func (c *MopidyClient) Play(ctx context.Context) error {
	return c.call(ctx, "core.playback.play", nil, nil)
}

func (c *MopidyClient) Pause(ctx context.Context) error {
	return c.call(ctx, "core.playback.pause", nil, nil)
}

func (c *MopidyClient) Stop(ctx context.Context) error {
	return c.call(ctx, "core.playback.stop", nil, nil)
}

func (c *MopidyClient) Next(ctx context.Context) error {
	return c.call(ctx, "core.playback.next", nil, nil)
}

func (c *MopidyClient) Previous(ctx context.Context) error {
	return c.call(ctx, "core.playback.previous", nil, nil)
}

func (c *MopidyClient) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return c.call(ctx, "core.mixer.set_volume", map[string]int{"volume": volume}, nil)
}

func (c *MopidyClient) Volume(ctx context.Context) (int, error) {
	var volume int
	if err := c.call(ctx, "core.mixer.get_volume", nil, &volume); err != nil {
		return 0, err
	}
	return volume, nil
}

func (c *MopidyClient) Playlists(ctx context.Context) ([]Playlist, error) {
	var raw []struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	}
	if err := c.call(ctx, "core.playlists.as_list", nil, &raw); err != nil {
		return nil, err
	}
	playlists := make([]Playlist, 0, len(raw))
	for _, pl := range raw {
		playlists = append(playlists, Playlist{URI: pl.URI, Name: pl.Name})
	}
	return playlists, nil
}

func (c *MopidyClient) LoadPlaylist(ctx context.Context, uri string) error {
	if err := c.call(ctx, "core.tracklist.clear", nil, nil); err != nil {
		return err
	}

	var pl struct {
		Name   string        `json:"name"`
		Tracks []mopidyTrack `json:"tracks"`
	}
	if err := c.call(ctx, "core.playlists.lookup", map[string]string{"uri": uri}, &pl); err != nil {
		return err
	}
	if len(pl.Tracks) == 0 {
		return &OpError{Op: "core.playlists.lookup", Err: fmt.Errorf("playlist %s has no tracks", uri)}
	}

	uris := make([]string, 0, len(pl.Tracks))
	for _, t := range pl.Tracks {
		uris = append(uris, t.URI)
	}
	if err := c.call(ctx, "core.tracklist.add", map[string]any{"uris": uris}, nil); err != nil {
		return err
	}

	c.log.Info("playlist loaded", "name", pl.Name, "tracks", len(uris))
	return c.Play(ctx)
}
