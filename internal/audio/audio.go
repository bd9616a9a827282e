// Package audio starts a background soundtrack alongside playback.
//
// Audio is fire-and-forget: it runs in a separate process with no
// synchronization to the action schedule, and is torn down when the
// program exits.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/joeycumines/cliplay/internal/argv"
)

// ErrNoPlayer is returned when no command is configured and none of the
// known players is installed.
var ErrNoPlayer = errors.New("audio: no player command configured or found on PATH")

// Collaborator plays one audio file in the background.
type Collaborator interface {
	// Start begins playback of path and returns without waiting for it.
	Start(path string) error
	// Close stops playback, if any. It is safe to call more than once.
	Close() error
}

// Nop discards every request.
type Nop struct{}

func (Nop) Start(string) error { return nil }
func (Nop) Close() error       { return nil }

// Candidates are tried in order when no command template is configured.
var Candidates = []string{
	"ffplay -nodisp -autoexit -loglevel quiet {file}",
	"mpv --no-video --really-quiet {file}",
	"afplay {file}",
	"paplay {file}",
	"aplay -q {file}",
}

// Detect returns the first candidate template whose program lookPath can
// resolve, or "" if none can.
func Detect(lookPath func(string) (string, error)) string {
	for _, c := range Candidates {
		args, err := argv.Split(c)
		if err != nil || len(args) == 0 {
			continue
		}
		if _, err := lookPath(args[0]); err == nil {
			return c
		}
	}
	return ""
}

// killGrace is how long Close waits after asking the player to stop before
// killing it outright.
const killGrace = 100 * time.Millisecond

// ExecPlayer runs an external program for the soundtrack. The program runs
// in its own process group with stdio discarded.
type ExecPlayer struct {
	template string
	logger   *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewExecPlayer returns a player for the command template, in which {file}
// is replaced by the audio path. If the template has no {file} placeholder
// the path is appended as the final argument. An empty template selects the
// first installed program from Candidates.
func NewExecPlayer(template string, logger *slog.Logger) (*ExecPlayer, error) {
	if template == "" {
		template = Detect(exec.LookPath)
		if template == "" {
			return nil, ErrNoPlayer
		}
	}
	if _, err := argv.Split(template); err != nil {
		return nil, fmt.Errorf("audio: invalid command %q: %w", template, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecPlayer{template: template, logger: logger}, nil
}

// Command returns the template in use.
func (p *ExecPlayer) Command() string { return p.template }

func (p *ExecPlayer) Start(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	args, err := argv.Expand(p.template, map[string]string{"file": path})
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if !argv.Contains(p.template, "file") {
		args = append(args, path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return errors.New("audio: already started")
	}

	cmd := exec.Command(args[0], args[1:]...)
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: starting %s: %w", args[0], err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := cmd.Wait()
		p.logger.Debug("audio player exited", slog.String("program", args[0]), slog.Any("error", err))
	}()

	p.cmd, p.done = cmd, done
	p.logger.Info("audio started", slog.String("file", path), slog.Int("pid", cmd.Process.Pid))
	return nil
}

// running reports whether the player process is still alive.
func (p *ExecPlayer) running() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (p *ExecPlayer) Close() error {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.mu.Unlock()
	if cmd == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}
	killProcessGroup(cmd, done)
	<-done
	return nil
}
