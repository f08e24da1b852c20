// Package config loads the device configuration from TOML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// SIP holds the call-control settings.
type SIP struct {
	Server        string `toml:"server"`
	Username      string `toml:"username"`
	Identity      string `toml:"identity"`
	LinphonecPath string `toml:"linphonec_path"`
	DebugLevel    int    `toml:"debug_level"`
}

// Audio holds the playback service settings.
type Audio struct {
	// Backend selects the playback protocol: "mopidy" (HTTP JSON-RPC)
	// or "mpd".
	Backend string `toml:"backend"`
	// MopidyURL is the HTTP base URL of the Mopidy server.
	MopidyURL string `toml:"mopidy_url"`
	// MPDAddress is the tcp address of the MPD port.
	MPDAddress  string `toml:"mpd_address"`
	MPDPassword string `toml:"mpd_password"`

	// PollIntervalMS is the playback poll interval in milliseconds.
	PollIntervalMS int `toml:"poll_interval_ms"`
	// FailureThreshold is the number of consecutive poll failures
	// before connectivity is reported degraded.
	FailureThreshold int `toml:"failure_threshold"`
	// AutoResumeAfterCall resumes paused music when a call ends.
	AutoResumeAfterCall bool `toml:"auto_resume_after_call"`
	// EventFeed enables the Mopidy websocket event feed alongside the
	// poller.
	EventFeed bool `toml:"event_feed"`
	// RequestTimeoutMS bounds a single playback service request.
	RequestTimeoutMS int `toml:"request_timeout_ms"`
}

// UI holds input/display settings.
type UI struct {
	// InputDevice is the evdev device path for the physical buttons;
	// empty selects the stdin adapter.
	InputDevice string `toml:"input_device"`
	Language    string `toml:"language"`
}

// Config is the full device configuration.
type Config struct {
	SIP          SIP    `toml:"sip"`
	Audio        Audio  `toml:"audio"`
	UI           UI     `toml:"ui"`
	ContactsFile string `toml:"contacts_file"`
	LogPath      string `toml:"log_path"`
	LogLevel     string `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SIP: SIP{
			Server:        "sip.linphone.org",
			LinphonecPath: "/usr/bin/linphonec",
			DebugLevel:    6,
		},
		Audio: Audio{
			Backend:             "mopidy",
			MopidyURL:           "http://localhost:6680",
			MPDAddress:          "localhost:6600",
			PollIntervalMS:      2000,
			FailureThreshold:    3,
			AutoResumeAfterCall: true,
			RequestTimeoutMS:    5000,
		},
		UI: UI{
			Language: "en",
		},
		ContactsFile: "config/contacts.toml",
		LogPath:      "logs/yoyopod.log",
		LogLevel:     "info",
	}
}

// Load reads the config file at path, filling unset fields with
// defaults. A missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Audio.PollIntervalMS <= 0 {
		cfg.Audio.PollIntervalMS = 2000
	}
	if cfg.Audio.FailureThreshold <= 0 {
		cfg.Audio.FailureThreshold = 3
	}
	if cfg.Audio.RequestTimeoutMS <= 0 {
		cfg.Audio.RequestTimeoutMS = 5000
	}
	return cfg, nil
}

// PollInterval returns the poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Audio.PollIntervalMS) * time.Millisecond
}

// RequestTimeout returns the playback request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Audio.RequestTimeoutMS) * time.Millisecond
}
