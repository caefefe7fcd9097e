package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - The daemon loop is the only goroutine that touches the control surface.
//   - Events are applied strictly in arrival order; there is no re-entrant dispatch.
//   - Broadcasts produced while applying an event are published after it completes.
//   - Publishing never blocks the loop: a full broadcast queue drops the message.
//
// ============================================================================

// runDaemon is the main daemon loop.
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	state *daemonState,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			state.apply(ev, time.Now())
			publish(broadcasts, state.drain(), logger)
		}
	}
}

func publish(broadcasts chan<- StateBroadcast, items []StateBroadcast, logger *slog.Logger) {
	if broadcasts == nil {
		return
	}
	for _, b := range items {
		select {
		case broadcasts <- b:
		default:
			logger.Warn("broadcast queue full, dropping", "type", fmt.Sprintf("%T", b))
		}
	}
}
