package ui

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Labels resolves screen text through a go-i18n bundle. English
// defaults are registered in code; translation files are optional TOML
// overlays.
type Labels struct {
	localizer *i18n.Localizer
}

var defaultMessages = []*i18n.Message{
	{ID: "MenuTitle", Other: "YoyoPod"},
	{ID: "MenuNowPlaying", Other: "Now Playing"},
	{ID: "MenuPlaylists", Other: "Playlists"},
	{ID: "MenuContacts", Other: "Contacts"},
	{ID: "MenuCallStatus", Other: "VoIP Status"},
	{ID: "NowPlayingTitle", Other: "Now Playing"},
	{ID: "NoTrack", Other: "Nothing playing"},
	{ID: "PlaylistsTitle", Other: "Playlists"},
	{ID: "NoPlaylists", Other: "No playlists"},
	{ID: "ContactsTitle", Other: "Contacts"},
	{ID: "NoContacts", Other: "No contacts"},
	{ID: "CallStatusTitle", Other: "VoIP Status"},
	{ID: "Registered", Other: "Registered"},
	{ID: "NotRegistered", Other: "Not registered"},
	{ID: "IncomingCallTitle", Other: "Incoming Call"},
	{ID: "OutgoingCallTitle", Other: "Calling..."},
	{ID: "InCallTitle", Other: "In Call"},
	{ID: "UnknownCaller", Other: "Unknown"},
	{ID: "AnswerHint", Other: "SELECT answer / BACK decline"},
	{ID: "HangupHint", Other: "BACK hang up"},
	{ID: "ConnectionLostTitle", Other: "Connection Lost"},
	{ID: "ConnectionLostBody", Other: "Call service unavailable"},
	{ID: "DegradedBody", Other: "Music service unreachable"},
}

// NewLabels builds the label set for the given language tag. messageDir
// may name a directory of go-i18n TOML files; a missing or empty dir is
// fine.
func NewLabels(lang, messageDir string) *Labels {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if err := bundle.AddMessages(language.English, defaultMessages...); err != nil {
		panic(err) // static message table, only fails on duplicate IDs
	}

	if messageDir != "" {
		entries, err := os.ReadDir(messageDir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
					continue
				}
				// Best-effort: a broken translation file must not take
				// the device down.
				bundle.LoadMessageFile(filepath.Join(messageDir, e.Name()))
			}
		}
	}

	if lang == "" {
		lang = "en"
	}
	return &Labels{localizer: i18n.NewLocalizer(bundle, lang, "en")}
}

// T resolves a message ID, falling back to the ID itself.
func (l *Labels) T(id string) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}
