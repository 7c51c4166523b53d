package console

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
)

// operation tracks one invocation through the phase machine. Every terminal
// method returns the entry to PhaseIdle and records the outcome.
type operation struct {
	console *Console
	id      string
	kind    Operation
	started time.Time
	logger  zerolog.Logger
}

func (c *Console) begin(kind Operation) *operation {
	id := uuid.NewString()
	started := c.now()
	op := &operation{
		console: c,
		id:      id,
		kind:    kind,
		started: started,
		logger:  c.logger.With().Str("operation", string(kind)).Str("operation_id", id).Logger(),
	}

	c.mu.Lock()
	c.state.Status = ""
	c.state.Operations[kind] = OperationStatus{
		ID:        id,
		Operation: kind,
		Phase:     PhaseValidating,
		StartedAt: started,
	}
	c.mu.Unlock()

	op.logger.Debug().Str("phase", string(PhaseValidating)).Msg("operation started")
	return op
}

func (o *operation) transition(phase Phase, status string) {
	c := o.console
	c.mu.Lock()
	entry := c.state.Operations[o.kind]
	if entry.ID == o.id {
		entry.Phase = phase
		c.state.Operations[o.kind] = entry
	}
	if status != "" {
		c.state.Status = status
	}
	c.mu.Unlock()

	o.logger.Debug().Str("phase", string(phase)).Msg("operation transition")
}

func (o *operation) reject(err error) error {
	o.finish(PhaseRejected, err.Error())
	o.logger.Info().Str("phase", string(PhaseRejected)).Str("reason", err.Error()).Msg("operation rejected")
	return err
}

// fail records "<prefix>: <reason>" as the status line, preferring a decoded
// revert reason over the raw error text.
func (o *operation) fail(prefix string, err error) error {
	message := prefix + ": " + contract.Reason(err)
	o.finish(PhaseFailed, message)
	o.logger.Error().Err(err).Str("phase", string(PhaseFailed)).Msg("operation failed")
	return &OperationError{
		Operation:   o.kind,
		OperationID: o.id,
		Message:     message,
		Err:         err,
	}
}

func (o *operation) complete(status string) {
	o.finish(PhaseCompleted, status)
	o.logger.Info().Str("phase", string(PhaseCompleted)).Msg("operation completed")
}

func (o *operation) finish(outcome Phase, status string) {
	c := o.console
	finished := c.now()

	c.mu.Lock()
	entry := c.state.Operations[o.kind]
	if entry.ID == o.id {
		entry.Phase = PhaseIdle
		entry.Outcome = outcome
		entry.Message = status
		entry.FinishedAt = &finished
		c.state.Operations[o.kind] = entry
	}
	c.state.Status = status
	c.mu.Unlock()

	c.metrics.observeOperation(o.kind, outcome, finished.Sub(o.started))
}
