// Package workflow implements the two-step confirm protocol used for every
// admin mutation: an action is staged, described to the user, and only runs
// after an explicit confirmation.
package workflow

import (
	"context"
	"errors"
	"sync"

	"coursetrack/internal/notify"

	"github.com/rs/zerolog"
)

// State names for the confirm protocol.
type State string

const (
	StateIdle      State = "idle"
	StateStaged    State = "staged"
	StateExecuting State = "executing"
)

var (
	// ErrNotIdle is returned when an action is staged while another one is
	// still pending or executing. Staging never silently overwrites.
	ErrNotIdle = errors.New("workflow: an action is already pending")
	// ErrNothingStaged is returned by Confirm and Cancel when no action is
	// pending.
	ErrNothingStaged = errors.New("workflow: no action staged")
)

// Action is a staged save or delete. Run performs the bound store operation;
// the toasts are emitted after execution, exactly one per completed action.
type Action struct {
	Prompt  string
	Success notify.Toast
	Failure notify.Toast
	Run     func(ctx context.Context) error
}

// Workflow is the per-resource pending-action state machine:
// Idle -> Staged -> (Executing -> Idle | Idle on cancel).
type Workflow struct {
	notifier notify.Notifier
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	pending *Action
}

func New(notifier notify.Notifier, logger zerolog.Logger) *Workflow {
	return &Workflow{
		notifier: notifier,
		logger:   logger.With().Str("component", "workflow").Logger(),
		state:    StateIdle,
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Stage captures an action and returns its confirmation prompt. Fails with
// ErrNotIdle unless the workflow is idle.
func (w *Workflow) Stage(a Action) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle {
		return "", ErrNotIdle
	}
	w.state = StateStaged
	w.pending = &a
	return a.Prompt, nil
}

// Cancel discards the staged action without running it. No store mutation
// and no toast.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateStaged {
		return ErrNothingStaged
	}
	w.state = StateIdle
	w.pending = nil
	return nil
}

// Confirm executes the staged action, emits its success or failure toast and
// returns to idle. The toast is returned alongside the run error so callers
// can echo it in the response.
func (w *Workflow) Confirm(ctx context.Context) (notify.Toast, error) {
	w.mu.Lock()
	if w.state != StateStaged {
		w.mu.Unlock()
		return notify.Toast{}, ErrNothingStaged
	}
	a := w.pending
	w.state = StateExecuting
	w.mu.Unlock()

	err := a.Run(ctx)

	w.mu.Lock()
	w.state = StateIdle
	w.pending = nil
	w.mu.Unlock()

	toast := a.Success
	if err != nil {
		w.logger.Error().Err(err).Msg("staged action failed")
		toast = a.Failure
	}
	w.notifier.Notify(toast)
	return toast, err
}
