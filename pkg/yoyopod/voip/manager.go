package voip

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"go.uber.org/atomic"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/event"
	"github.com/yoyopod/yoyopod/internal"
)

// ErrNotRunning indicates a command was issued while the subprocess is
// not alive.
var ErrNotRunning = errors.New("voip: linphonec not running")

// OpError wraps a subprocess-level failure with the operation that hit it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("voip: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Config holds the subprocess launch settings.
type Config struct {
	LinphonecPath string // path to the linphonec binary
	DebugLevel    int    // linphonec -d level
}

// Manager owns the linphonec subprocess. One goroutine blocks on the
// process's stdout and pushes typed events into the intake; commands are
// written to stdin fire-and-forget. The manager never surfaces a parser
// or pipe failure as an error to its callers: stream loss becomes a
// ConnectionLost event and everything else is absorbed.
type Manager struct {
	cfg    Config
	intake chan<- event.Event

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running *atomic.Bool
	stopped *atomic.Bool
	// quit releases the reader from a blocked intake send on shutdown.
	quit chan struct{}
	done chan struct{}
	log  *slog.Logger
}

// NewManager creates a manager that emits events into intake.
func NewManager(cfg Config, intake chan<- event.Event) *Manager {
	if cfg.LinphonecPath == "" {
		cfg.LinphonecPath = "/usr/bin/linphonec"
	}
	if cfg.DebugLevel == 0 {
		cfg.DebugLevel = 6
	}
	return &Manager{
		cfg:     cfg,
		intake:  intake,
		running: atomic.NewBool(false),
		stopped: atomic.NewBool(false),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		log:     internal.GetLogger(),
	}
}

// Start launches the subprocess and the output reader loop.
func (m *Manager) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}

	cmd := exec.Command(m.cfg.LinphonecPath, "-d", fmt.Sprintf("%d", m.cfg.DebugLevel))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		m.running.Store(false)
		return &OpError{Op: "stdin pipe", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.running.Store(false)
		return &OpError{Op: "stdout pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		m.running.Store(false)
		return &OpError{Op: "start", Err: err}
	}

	m.cmd = cmd
	m.stdin = stdin

	go m.readLoop(stdout)

	m.log.Info("linphonec started", "path", m.cfg.LinphonecPath, "pid", cmd.Process.Pid)

	// Ask for the current registration state so the coordinator learns it
	// without waiting for the next refresh.
	m.send("status register")

	return nil
}

// readLoop blocks on subprocess stdout until the stream closes. It is
// the only writer of call events into the intake, which keeps them FIFO.
func (m *Manager) readLoop(stdout io.Reader) {
	defer close(m.done)

	parser := NewParser()
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		m.log.Debug("linphonec output", "line", line)
		for _, ev := range parser.ParseLine(line) {
			select {
			case m.intake <- ev:
			case <-m.quit:
				m.running.Store(false)
				return
			}
		}
	}

	m.running.Store(false)

	// Stream closed. A requested shutdown is not a failure; anything else
	// is reported exactly once.
	if !m.stopped.Load() {
		m.log.Warn("linphonec output stream closed")
		select {
		case m.intake <- event.NewConnectionLost():
		case <-m.quit:
		}
	}
}

// send writes one command line to the subprocess, fire-and-forget.
func (m *Manager) send(command string) error {
	if !m.running.Load() || m.stdin == nil {
		return ErrNotRunning
	}
	if _, err := io.WriteString(m.stdin, command+"\n"); err != nil {
		return &OpError{Op: "send " + command, Err: err}
	}
	m.log.Debug("sent command", "command", command)
	return nil
}

// Answer accepts the ringing call.
func (m *Manager) Answer() error { return m.send("answer") }

// Hangup terminates the current call.
func (m *Manager) Hangup() error { return m.send("terminate") }

// Call places an outgoing call to the given SIP address.
func (m *Manager) Call(address string) error {
	return m.send("call " + address)
}

// Running reports whether the subprocess is alive.
func (m *Manager) Running() bool { return m.running.Load() }

// Stop asks the subprocess to quit and joins the reader loop, bounded by
// ctx. A reader that outlives ctx is abandoned after the process is
// killed.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(m.quit)
	if m.cmd == nil {
		return nil
	}

	m.send("quit")
	if m.stdin != nil {
		m.stdin.Close()
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- m.cmd.Wait() }()

	select {
	case <-waitErr:
	case <-ctx.Done():
		m.cmd.Process.Kill()
		select {
		case <-waitErr:
		case <-time.After(time.Second):
		}
	}

	select {
	case <-m.done:
	case <-ctx.Done():
	}

	m.running.Store(false)
	m.log.Info("voip manager stopped")
	return nil
}
