package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spring2node/internal/pipeline"
)

// Job is one conversion run tracked by the server. The orchestrator owns
// the execution; the job adds identity, cancellation, and the final state.
type Job struct {
	ID        string
	Request   pipeline.Request
	CreatedAt time.Time

	orch   *pipeline.Orchestrator
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state *pipeline.State
	err   error
}

// JobStatus is the wire projection of one job.
type JobStatus struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	pipeline.ExecutionStatus
	OutputDir string `json:"output_dir,omitempty"`
}

func (j *Job) run(ctx context.Context) {
	defer close(j.done)
	s, err := j.orch.Run(ctx, &pipeline.State{Request: j.Request})
	j.mu.Lock()
	j.state, j.err = s, err
	j.mu.Unlock()
}

// Cancel requests cancellation; the run ends at the next phase boundary.
func (j *Job) Cancel() { j.cancel() }

// Done closes when the run has reached a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Status snapshots the job for observers, safe to call while running.
func (j *Job) Status() JobStatus {
	st := JobStatus{ID: j.ID, CreatedAt: j.CreatedAt, ExecutionStatus: j.orch.Status()}
	j.mu.Lock()
	if j.state != nil {
		st.OutputDir = j.state.OutputDir
	}
	j.mu.Unlock()
	return st
}

// Result returns the final pipeline state once the job is done.
func (j *Job) Result() (*pipeline.State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, j.err
}

// Store holds every job the server has accepted, in memory.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Launch registers a new job and starts its run in the background.
func (st *Store) Launch(req pipeline.Request, phases []pipeline.Phase, logger *zap.Logger) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.NewString(),
		Request:   req,
		CreatedAt: time.Now().UTC(),
		orch:      pipeline.NewOrchestrator(phases, logger),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	st.mu.Lock()
	st.jobs[j.ID] = j
	st.mu.Unlock()
	go j.run(ctx)
	return j
}

func (st *Store) Get(id string) (*Job, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	j, ok := st.jobs[id]
	return j, ok
}

// List returns every job, oldest first.
func (st *Store) List() []*Job {
	st.mu.RLock()
	out := make([]*Job, 0, len(st.jobs))
	for _, j := range st.jobs {
		out = append(out, j)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out
}

func terminal(state string) bool {
	switch state {
	case pipeline.StateCompleted, pipeline.StateFailed, pipeline.StateCancelled:
		return true
	}
	return false
}
