package cue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mpataki/drill/internal/log"
	"github.com/mpataki/drill/internal/pubsub"
	"github.com/mpataki/drill/internal/session"
)

// Dispatcher plays the cue for each runner event. Playback runs on its own
// goroutine so a slow player never holds up the event stream.
type Dispatcher struct {
	player  Player
	enabled func(string) bool
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher. enabled filters cues by name; nil
// enables every cue.
func NewDispatcher(player Player, enabled func(string) bool) *Dispatcher {
	if enabled == nil {
		enabled = func(string) bool { return true }
	}
	return &Dispatcher{
		player:  player,
		enabled: enabled,
		logger:  log.WithComponent("cue"),
	}
}

// Run plays cues until events closes, then waits for in-flight playback.
func (d *Dispatcher) Run(ctx context.Context, events <-chan pubsub.Event[session.Event]) {
	defer d.wg.Wait()
	for ev := range events {
		c, ok := FromEvent(ev.Type, ev.Payload)
		if !ok || !d.enabled(string(c)) {
			continue
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.play(ctx, c)
		}()
	}
}

func (d *Dispatcher) play(ctx context.Context, c Cue) {
	err := d.player.Play(ctx, c)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSound):
		d.logger.Debug().Str("cue", string(c)).Msg("no sound for cue")
	default:
		d.logger.Warn().Err(err).Str("cue", string(c)).Msg("cue playback failed")
	}
}
