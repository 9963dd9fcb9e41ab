package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Terminal and in-flight execution states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// ExecutionStatus is the read-only projection of a run for observers. It is
// recomputed from the orchestrator's tracking fields on demand, never stored
// as a second source of truth.
type ExecutionStatus struct {
	State           string   `json:"state"`
	Phase           string   `json:"phase,omitempty"`
	CompletedPhases int      `json:"completed_phases"`
	TotalPhases     int      `json:"total_phases"`
	Progress        float64  `json:"progress"`
	Errors          []string `json:"errors,omitempty"`
	SafetyBlocks    int      `json:"safety_blocks"`
	FatalError      string   `json:"fatal_error,omitempty"`
}

// Orchestrator executes the fixed phase order against one State. Run and
// Status are safe to call from different goroutines; Run may be called once
// per Orchestrator.
type Orchestrator struct {
	phases []Phase
	log    *zap.Logger

	mu        sync.RWMutex
	state     string
	phase     string
	completed int
	errs      []string
	blocks    int
	fatal     string
}

func NewOrchestrator(phases []Phase, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{phases: phases, log: logger, state: StatePending}
}

// Run executes every phase in order against s and returns the final state.
// A phase error is fatal: the run stops with the partial state and the
// error. Context cancellation between phases ends the run in the cancelled
// terminal state; the state built so far stays intact.
func (o *Orchestrator) Run(ctx context.Context, s *State) (*State, error) {
	if err := s.Request.Validate(); err != nil {
		o.finish(StateFailed, err.Error())
		return s, err
	}

	for i, p := range o.phases {
		if ctx.Err() != nil {
			o.finish(StateCancelled, "")
			o.syncLedgers(s)
			return s, ctx.Err()
		}
		o.beginPhase(p.Name, i)
		o.log.Info("phase starting", zap.String("phase", p.Name))

		if err := p.Run(ctx, s); err != nil {
			o.log.Error("phase failed", zap.String("phase", p.Name), zap.Error(err))
			o.syncLedgers(s)
			o.finish(StateFailed, err.Error())
			return s, fmt.Errorf("phase %s: %w", p.Name, err)
		}
		o.syncLedgers(s)
		o.log.Info("phase complete", zap.String("phase", p.Name), zap.Int("errors", len(s.Errors)))
	}

	if ctx.Err() != nil {
		o.finish(StateCancelled, "")
		return s, ctx.Err()
	}
	o.finish(StateCompleted, "")
	return s, nil
}

// Status projects the current execution for concurrent observers.
func (o *Orchestrator) Status() ExecutionStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	total := len(o.phases)
	st := ExecutionStatus{
		State:           o.state,
		Phase:           o.phase,
		CompletedPhases: o.completed,
		TotalPhases:     total,
		Errors:          append([]string(nil), o.errs...),
		SafetyBlocks:    o.blocks,
		FatalError:      o.fatal,
	}
	if total > 0 {
		st.Progress = float64(o.completed) / float64(total) * 100
	}
	if o.state == StateCompleted {
		st.Progress = 100
	}
	return st
}

func (o *Orchestrator) beginPhase(name string, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateRunning
	o.phase = name
	o.completed = index
}

// syncLedgers copies the append-only ledgers into the status snapshot so
// observers see them without touching the state value a phase may own.
func (o *Orchestrator) syncLedgers(s *State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append([]string(nil), s.Errors...)
	o.blocks = len(s.SafetyBlocks)
}

func (o *Orchestrator) finish(state, fatal string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = state
	o.fatal = fatal
	if state == StateCompleted {
		o.completed = len(o.phases)
		o.phase = ""
	}
}
