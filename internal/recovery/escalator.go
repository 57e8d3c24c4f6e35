package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// ErrAllMethodsFailed means every action in the chain was tried and none
// reported success
var ErrAllMethodsFailed = errors.New("all recovery methods failed")

// Sequences holds the key sequences the actions send
type Sequences struct {
	PrimaryChord string // accept/continue shortcut
	CommandChord string // opens the command entry
	CommandName  string // typed into the command entry
	SubmitChord  string // bare submit key
	FallbackText string // typed into the input region as a last resort
}

// DefaultSequences targets the editor's inline-chat surface
func DefaultSequences() Sequences {
	return Sequences{
		PrimaryChord: "ctrl+enter",
		CommandChord: "ctrl+shift+p",
		CommandName:  "Chat: Continue",
		SubmitChord:  "enter",
		FallbackText: "continue",
	}
}

// Escalator walks the recovery action chain for a frozen window,
// stopping at the first action that completes. Callers serialize
// Recover with every other input-simulating operation.
type Escalator struct {
	input     platform.Input
	chain     []Action
	sequences Sequences
	settle    time.Duration
	log       *logging.Logger
}

// NewEscalator creates an escalator over the given input backend and
// action chain
func NewEscalator(input platform.Input, chain []Action, log *logging.Logger) *Escalator {
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	return &Escalator{
		input:     input,
		chain:     chain,
		sequences: DefaultSequences(),
		settle:    300 * time.Millisecond,
		log:       log,
	}
}

// WithSequences overrides the key sequences
func (e *Escalator) WithSequences(s Sequences) *Escalator {
	e.sequences = s
	return e
}

// WithSettleDelay overrides the pause between steps of a multi-step
// action, used by tests
func (e *Escalator) WithSettleDelay(d time.Duration) *Escalator {
	e.settle = d
	return e
}

// Recover runs the chain against one window and returns the action that
// succeeded. Every action foregrounds the window first; a foregrounding
// failure skips to the next action.
func (e *Escalator) Recover(ctx context.Context, win platform.WindowHandle) (Action, error) {
	for _, action := range e.chain {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := e.input.Foreground(ctx, win); err != nil {
			e.log.Debugf("recovery %s: cannot foreground %s: %v", action, win.ID, err)
			continue
		}

		if err := e.perform(ctx, action, win); err != nil {
			e.log.Debugf("recovery %s failed for %s: %v", action, win.ID, err)
			continue
		}

		e.log.Infof("recovered %s via %s", win.ID, action)
		return action, nil
	}
	return 0, fmt.Errorf("window %s: %w", win.ID, ErrAllMethodsFailed)
}

func (e *Escalator) perform(ctx context.Context, action Action, win platform.WindowHandle) error {
	switch action {
	case PrimaryShortcut:
		return e.input.SendKeys(ctx, e.sequences.PrimaryChord)
	case CommandInvocation:
		return e.invokeCommand(ctx, win)
	case SubmitKey:
		return e.input.SendKeys(ctx, e.sequences.SubmitChord)
	case LiteralTextFallback:
		return e.typeFallback(ctx, win)
	default:
		return fmt.Errorf("unknown recovery action %d", action)
	}
}

// invokeCommand opens the command entry, types the command name, and
// confirms it
func (e *Escalator) invokeCommand(ctx context.Context, win platform.WindowHandle) error {
	if err := e.input.SendKeys(ctx, e.sequences.CommandChord); err != nil {
		return err
	}
	if err := e.pause(ctx); err != nil {
		return err
	}
	if err := e.input.TypeText(ctx, e.sequences.CommandName); err != nil {
		return err
	}
	if err := e.pause(ctx); err != nil {
		return err
	}
	return e.input.SendKeys(ctx, e.sequences.SubmitChord)
}

// typeFallback clicks the presumed input region, replaces its content
// with the fallback phrase, and submits
func (e *Escalator) typeFallback(ctx context.Context, win platform.WindowHandle) error {
	// The input region sits near the bottom of the window
	x := win.X + win.Width/2
	y := win.Y + (win.Height*7)/8
	if err := e.input.Click(ctx, x, y); err != nil {
		return err
	}
	if err := e.pause(ctx); err != nil {
		return err
	}
	if err := e.input.SendKeys(ctx, "ctrl+a"); err != nil {
		return err
	}
	if err := e.input.TypeText(ctx, e.sequences.FallbackText); err != nil {
		return err
	}
	return e.input.SendKeys(ctx, e.sequences.SubmitChord)
}

// pause waits for the UI to settle without blocking past cancellation
func (e *Escalator) pause(ctx context.Context) error {
	if e.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(e.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
