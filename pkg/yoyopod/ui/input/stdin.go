package input

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/atomic"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
)

// StdinSource maps typed lines to actions, for development without the
// device. One word per line: up, down, select, back, ok (or the short
// forms w, s, e, b, c).
type StdinSource struct {
	r       io.Reader
	actions chan ui.Action
	running *atomic.Bool
	done    chan struct{}
}

func NewStdinSource() *StdinSource {
	return &StdinSource{
		r:       os.Stdin,
		actions: make(chan ui.Action, 8),
		running: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
}

func (s *StdinSource) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go s.readLoop()
	return nil
}

func (s *StdinSource) readLoop() {
	defer close(s.done)
	defer close(s.actions)

	scanner := bufio.NewScanner(s.r)
	for s.running.Load() && scanner.Scan() {
		var action ui.Action
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "up", "w":
			action = ui.ActionUp
		case "down", "s":
			action = ui.ActionDown
		case "select", "e", "":
			action = ui.ActionSelect
		case "back", "b":
			action = ui.ActionBack
		case "ok", "c", "confirm":
			action = ui.ActionConfirm
		default:
			continue
		}
		select {
		case s.actions <- action:
		default:
		}
	}
}

func (s *StdinSource) Actions() <-chan ui.Action { return s.actions }

func (s *StdinSource) Stop(ctx context.Context) {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	// The scanner unblocks on the next line or EOF; don't wait past the
	// deadline for a terminal that never types again.
	select {
	case <-s.done:
	case <-ctx.Done():
	}
}
