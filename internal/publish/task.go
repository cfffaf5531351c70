package publish

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/project"
)

// Backend names a storage backend.
type Backend string

const (
	BackendDrive      Backend = "drive"
	BackendBlockStore Backend = "block_store"
)

// Outcome is the settled result of one (project, tree, backend) publication.
type Outcome struct {
	Project  string         `json:"project"`
	Domain   string         `json:"domain"`
	Tree     project.Tree   `json:"tree"`
	Backend  Backend        `json:"backend"`
	Locator  string         `json:"locator,omitempty"`
	Record   string         `json:"record,omitempty"`
	Upserted bool           `json:"upserted"`
	Diff     map[string]int `json:"diff,omitempty"`
	Duration time.Duration  `json:"duration"`
	Err      error          `json:"-"`
	// Error mirrors Err for JSON consumers.
	Error string `json:"error,omitempty"`
}

// OK reports whether both the publication and its DNS upsert succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Task is a future for one publication chain. It settles exactly once.
type Task struct {
	Project string
	Tree    project.Tree
	Backend Backend

	done    chan struct{}
	outcome Outcome
}

func newTask(p project.Project, tree project.Tree, backend Backend) *Task {
	return &Task{Project: p.Name, Tree: tree, Backend: backend, done: make(chan struct{})}
}

func (t *Task) settle(o Outcome) {
	if o.Err != nil {
		o.Error = o.Err.Error()
	}
	t.outcome = o
	close(t.done)
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task settles or ctx is done. A settled task always
// returns its outcome, even when ctx is already done.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	if o, ok := t.Result(); ok {
		return o, nil
	}
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		if o, ok := t.Result(); ok {
			return o, nil
		}
		return Outcome{}, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while still running.
func (t *Task) Result() (Outcome, bool) {
	select {
	case <-t.done:
		return t.outcome, true
	default:
		return Outcome{}, false
	}
}

// Join waits for every task in order. Once ctx ends it stops waiting but still
// collects every task that has already settled; tasks still running are skipped.
func Join(ctx context.Context, tasks []*Task) []Outcome {
	out := make([]Outcome, 0, len(tasks))
	for _, t := range tasks {
		o, err := t.Wait(ctx)
		if err != nil {
			continue
		}
		out = append(out, o)
	}
	return out
}
