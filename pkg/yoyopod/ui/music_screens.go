package ui

import (
	"fmt"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/playback"
)

// PlaylistSource lists the loadable playlists. Implemented by the
// coordinator over the playback client.
type PlaylistSource interface {
	Playlists() []playback.Playlist
}

// NowPlayingScreen shows the current track and playback phase. The
// coordinator refreshes it from music events while it is visible.
type NowPlayingScreen struct {
	labels *Labels
	music  MusicControl

	title  string
	artist string
	phase  event.PlaybackPhase
	volume int
	notice string
}

func NewNowPlayingScreen(labels *Labels, music MusicControl) *NowPlayingScreen {
	return &NowPlayingScreen{labels: labels, music: music, volume: -1}
}

func (s *NowPlayingScreen) ID() ScreenID  { return ScreenNowPlaying }
func (s *NowPlayingScreen) Overlay() bool { return false }
func (s *NowPlayingScreen) Enter()        {}
func (s *NowPlayingScreen) Exit()         {}

// SetTrack updates the displayed track metadata.
func (s *NowPlayingScreen) SetTrack(title, artist string) {
	s.title = title
	s.artist = artist
}

// SetPhase updates the displayed playback phase.
func (s *NowPlayingScreen) SetPhase(phase event.PlaybackPhase) {
	s.phase = phase
}

// SetVolume updates the displayed volume; negative hides it.
func (s *NowPlayingScreen) SetVolume(volume int) {
	s.volume = volume
}

// SetNotice shows a status line (service degraded); empty clears it.
func (s *NowPlayingScreen) SetNotice(notice string) {
	s.notice = notice
}

func (s *NowPlayingScreen) Render(d Display) {
	d.Line(0, s.labels.T("NowPlayingTitle"))
	if s.title == "" {
		d.Line(2, s.labels.T("NoTrack"))
	} else {
		d.Line(2, s.title)
		d.Line(3, s.artist)
	}
	d.Line(5, s.phase.String())
	if s.volume >= 0 {
		d.Line(6, fmt.Sprintf("vol %d%%", s.volume))
	}
	if s.notice != "" {
		d.Line(7, s.notice)
	}
}

func (s *NowPlayingScreen) HandleAction(a Action) {
	switch a {
	case ActionSelect:
		s.music.TogglePlayback()
	case ActionConfirm:
		s.music.NextTrack()
	case ActionUp:
		s.music.VolumeUp()
	case ActionDown:
		s.music.VolumeDown()
	}
}

// PlaylistsScreen lists playlists and loads the selected one.
type PlaylistsScreen struct {
	labels *Labels
	music  MusicControl
	source PlaylistSource

	playlists []playback.Playlist
	cursor    int
}

func NewPlaylistsScreen(labels *Labels, music MusicControl, source PlaylistSource) *PlaylistsScreen {
	return &PlaylistsScreen{labels: labels, music: music, source: source}
}

func (s *PlaylistsScreen) ID() ScreenID  { return ScreenPlaylists }
func (s *PlaylistsScreen) Overlay() bool { return false }

func (s *PlaylistsScreen) Enter() {
	s.playlists = s.source.Playlists()
	if s.cursor >= len(s.playlists) {
		s.cursor = 0
	}
}

func (s *PlaylistsScreen) Exit() {}

func (s *PlaylistsScreen) Render(d Display) {
	d.Line(0, s.labels.T("PlaylistsTitle"))
	if len(s.playlists) == 0 {
		d.Line(2, s.labels.T("NoPlaylists"))
		return
	}
	// A small window around the cursor; the device shows few rows.
	start := 0
	if s.cursor > 4 {
		start = s.cursor - 4
	}
	row := 2
	for i := start; i < len(s.playlists) && row < 8; i++ {
		marker := "  "
		if i == s.cursor {
			marker = "> "
		}
		d.Line(row, marker+s.playlists[i].Name)
		row++
	}
}

func (s *PlaylistsScreen) HandleAction(a Action) {
	switch a {
	case ActionUp:
		if s.cursor > 0 {
			s.cursor--
		}
	case ActionDown:
		if s.cursor < len(s.playlists)-1 {
			s.cursor++
		}
	case ActionSelect, ActionConfirm:
		if s.cursor < len(s.playlists) {
			s.music.LoadPlaylist(s.playlists[s.cursor].URI)
		}
	}
}
