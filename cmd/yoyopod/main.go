// Command yoyopod runs the music + VoIP handheld application: it wires
// the call-control subprocess, the playback service, the state machine
// and the screen stack into one coordinator loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/app"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/config"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/contacts"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/playback"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui/input"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/voip"
)

// stopTimeout bounds the shutdown join of every background loop.
const stopTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "config/config.toml", "path to the device configuration")
	simulate := flag.Bool("simulate", false, "read input from stdin instead of the device buttons")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	internal.SetLogPath(cfg.LogPath)
	if *logLevel != "" {
		internal.SetRawLogLevel(*logLevel)
	} else {
		internal.SetRawLogLevel(cfg.LogLevel)
	}
	defer internal.CloseLogger()
	log := internal.GetLogger()

	dir, err := contacts.Load(cfg.ContactsFile)
	if err != nil {
		log.Error("contacts load failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("contacts loaded", "count", dir.Len())

	labels := ui.NewLabels(cfg.UI.Language, "")
	intake := make(chan event.Event, 64)

	var music playback.Client
	switch cfg.Audio.Backend {
	case "mpd":
		music = playback.NewMPDClient(cfg.Audio.MPDAddress, cfg.Audio.MPDPassword)
	default:
		music = playback.NewMopidyClient(cfg.Audio.MopidyURL, cfg.RequestTimeout())
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	if err := music.Ping(pingCtx); err != nil {
		log.Warn("playback service unreachable, continuing in call-only mode", "error", err.Error())
	}
	cancelPing()

	voipMgr := voip.NewManager(voip.Config{
		LinphonecPath: cfg.SIP.LinphonecPath,
		DebugLevel:    cfg.SIP.DebugLevel,
	}, intake)
	if err := voipMgr.Start(); err != nil {
		log.Warn("call control unavailable, continuing in music-only mode", "error", err.Error())
	}

	poller := playback.NewPoller(music, cfg.PollInterval(), cfg.Audio.FailureThreshold, intake)
	poller.Start()

	var feed *playback.EventFeed
	if cfg.Audio.EventFeed && cfg.Audio.Backend != "mpd" {
		feed = playback.NewEventFeed(cfg.Audio.MopidyURL, intake)
		feed.Start()
	}

	var src input.Source
	if *simulate || cfg.UI.InputDevice == "" {
		src = input.NewStdinSource()
	} else {
		src = input.NewEvdevSource(cfg.UI.InputDevice)
	}
	if err := src.Start(); err != nil {
		log.Error("input source failed", "error", err.Error())
		os.Exit(1)
	}

	coord := app.New(app.Options{
		Config:   cfg,
		Display:  ui.NewTerminalDisplay(os.Stdout, 8),
		Voip:     voipMgr,
		Music:    music,
		Contacts: dir,
		Labels:   labels,
		Intake:   intake,
		Actions:  src.Actions(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutting down")
		cancel()
	}()

	coord.Run(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	src.Stop(stopCtx)
	poller.Stop(stopCtx)
	if feed != nil {
		feed.Stop(stopCtx)
	}
	voipMgr.Stop(stopCtx)
	if mpd, ok := music.(*playback.MPDClient); ok {
		mpd.Close()
	}

	log.Info("yoyopod stopped")
}
