package input

import (
	"context"
	"log/slog"

	"github.com/holoplot/go-evdev"
	"go.uber.org/atomic"

	"github.com/yoyopod/yoyopod/internal"
	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
)

// keyMap is the fixed translation from evdev key codes to actions.
// The four-button device wires its buttons to these codes.
var keyMap = map[evdev.EvCode]ui.Action{
	evdev.KEY_UP:    ui.ActionUp,
	evdev.KEY_DOWN:  ui.ActionDown,
	evdev.KEY_ENTER: ui.ActionSelect,
	evdev.KEY_ESC:   ui.ActionBack,
	evdev.KEY_BACK:  ui.ActionBack,
	evdev.KEY_SPACE: ui.ActionConfirm,
	evdev.KEY_OK:    ui.ActionConfirm,
}

// EvdevSource reads key events from a /dev/input device.
type EvdevSource struct {
	path    string
	dev     *evdev.InputDevice
	actions chan ui.Action
	running *atomic.Bool
	done    chan struct{}
	log     *slog.Logger
}

// NewEvdevSource creates a source for the given device path.
func NewEvdevSource(path string) *EvdevSource {
	return &EvdevSource{
		path:    path,
		actions: make(chan ui.Action, 8),
		running: atomic.NewBool(false),
		done:    make(chan struct{}),
		log:     internal.GetLogger(),
	}
}

func (s *EvdevSource) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	dev, err := evdev.Open(s.path)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.dev = dev

	if name, err := dev.Name(); err == nil {
		s.log.Info("input device opened", "path", s.path, "name", name)
	}

	go s.readLoop()
	return nil
}

func (s *EvdevSource) readLoop() {
	defer close(s.done)
	defer close(s.actions)

	for s.running.Load() {
		ev, err := s.dev.ReadOne()
		if err != nil {
			if s.running.Load() {
				s.log.Warn("input device read failed", "error", err.Error())
			}
			return
		}
		// Key press only; releases and repeats are noise here.
		if ev.Type != evdev.EV_KEY || ev.Value != 1 {
			continue
		}
		action, ok := keyMap[ev.Code]
		if !ok {
			continue
		}
		select {
		case s.actions <- action:
		default:
			// Coordinator is behind; dropping a button press beats
			// queueing stale navigation.
		}
	}
}

func (s *EvdevSource) Actions() <-chan ui.Action { return s.actions }

func (s *EvdevSource) Stop(ctx context.Context) {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.dev != nil {
		s.dev.Close() // unblocks ReadOne
	}
	select {
	case <-s.done:
	case <-ctx.Done():
	}
}
