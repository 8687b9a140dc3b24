package cue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/mpataki/drill/internal/config"
)

// ErrNoSound is returned by players with nothing configured for a cue.
var ErrNoSound = errors.New("no sound configured")

type Player interface {
	Play(ctx context.Context, c Cue) error
}

// NewPlayer selects a player from the sound settings. Bell output goes to out.
func NewPlayer(cfg config.SoundConfig, out io.Writer) Player {
	if !cfg.Enabled {
		return Noop{}
	}
	switch cfg.Player {
	case "command":
		return NewCommand(cfg.Command, cfg.Files)
	case "none":
		return Noop{}
	default:
		return NewBell(out)
	}
}

type Noop struct{}

func (Noop) Play(context.Context, Cue) error { return nil }

// Bell rings the terminal bell: once for most cues, twice for the
// upcoming-change and completion cues.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Play(_ context.Context, c Cue) error {
	rings := "\a"
	if c == Upcoming || c == Complete {
		rings = "\a\a"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.out, rings)
	return err
}

// Command plays per-cue sound files with an external program.
type Command struct {
	Program string
	Files   map[string]string
	Timeout time.Duration
}

// NewCommand returns a Command player. An empty program picks afplay on
// macOS and paplay elsewhere.
func NewCommand(program string, files map[string]string) *Command {
	if program == "" {
		program = "paplay"
		if runtime.GOOS == "darwin" {
			program = "afplay"
		}
	}
	return &Command{Program: program, Files: files, Timeout: 10 * time.Second}
}

func (p *Command) Play(ctx context.Context, c Cue) error {
	file, ok := p.Files[string(c)]
	if !ok || file == "" {
		return fmt.Errorf("%s: %w", c, ErrNoSound)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, p.Program, file).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", p.Program, file, err, out)
	}
	return nil
}
