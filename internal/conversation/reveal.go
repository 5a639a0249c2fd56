package conversation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/utils"
)

// ScheduleReveal reveals the options of the current question once its prompt
// has been typed out. The returned channel receives nil when the reveal
// committed, or an error wrapping ErrRevealCancelled when a restart, a newer
// reveal or ctx cancelled it first. A cancelled reveal never commits.
func (c *Controller) ScheduleReveal(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	c.mu.Lock()
	if c.state.Phase != PhaseAsking {
		err := &InvalidPhaseError{Op: "schedule reveal", Phase: c.state.Phase}
		c.mu.Unlock()
		done <- err
		return done
	}

	if c.cancelReveal != nil {
		c.cancelReveal()
	}
	revealCtx, cancel := context.WithCancel(ctx)
	c.cancelReveal = cancel
	c.revealSeq++
	seq := c.revealSeq
	gen := c.generation
	q := c.questions[c.state.Index]
	delay := c.pacing.RevealDelay(q.Prompt)
	c.mu.Unlock()

	go func() {
		defer cancel()

		if err := utils.WaitFor(revealCtx, delay); err != nil {
			done <- fmt.Errorf("%w: %w", ErrRevealCancelled, err)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.generation != gen || c.revealSeq != seq {
			done <- ErrRevealCancelled
			return
		}
		c.cancelReveal = nil

		if err := c.revealLocked(); err != nil {
			done <- err
			return
		}
		c.log().Debug("options revealed", zap.String(logger.FieldQuestion, q.ID))
		done <- nil
	}()

	return done
}
