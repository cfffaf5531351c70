package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/publish"
)

// Trigger names what started a pass.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerRegistry Trigger = "registry"
	TriggerManual   Trigger = "manual"
)

// ErrPassInProgress is returned when a pass is requested while one runs.
var ErrPassInProgress = errors.DaemonError("pass already in progress").
	WithSeverity(errors.SeverityWarning).
	WithRetry(errors.RetryNextPass).
	Build()

// PassReport summarizes one pass.
type PassReport struct {
	ID         string                  `json:"id"`
	Trigger    Trigger                 `json:"trigger"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Duration   string                  `json:"duration"`
	Projects   project.IterationReport `json:"projects"`
	Outcomes   []publish.Outcome       `json:"outcomes"`
	Succeeded  int                     `json:"succeeded"`
	Failed     int                     `json:"failed"`
	Error      string                  `json:"error,omitempty"`
}

// OK reports whether every part of the pass succeeded.
func (r *PassReport) OK() bool {
	return r.Error == "" && r.Failed == 0 && len(r.Projects.Failed) == 0
}

// RegistryLoader reads the project registry.
type RegistryLoader func(path string) (*config.Registry, error)

// TaskStarter starts the publication tasks of one project.
type TaskStarter interface {
	Publish(ctx context.Context, passID string, p project.Project) []*publish.Task
}

// Runner executes passes one at a time.
type Runner struct {
	registryPath string
	loadRegistry RegistryLoader
	iterator     *project.Iterator
	pipeline     TaskStarter
	recorder     metrics.Recorder
	logger       *slog.Logger

	busy atomic.Bool
	last atomic.Pointer[PassReport]
}

// RunnerDeps collects the collaborators of a Runner.
type RunnerDeps struct {
	RegistryPath string
	LoadRegistry RegistryLoader
	Iterator     *project.Iterator
	Pipeline     TaskStarter
	Recorder     metrics.Recorder
	Logger       *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(deps RunnerDeps) *Runner {
	if deps.LoadRegistry == nil {
		deps.LoadRegistry = config.LoadRegistry
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Runner{
		registryPath: deps.RegistryPath,
		loadRegistry: deps.LoadRegistry,
		iterator:     deps.Iterator,
		pipeline:     deps.Pipeline,
		recorder:     metrics.OrNoop(deps.Recorder),
		logger:       deps.Logger,
	}
}

// Busy reports whether a pass is running.
func (r *Runner) Busy() bool { return r.busy.Load() }

// Last returns the report of the most recent finished pass, or nil.
func (r *Runner) Last() *PassReport { return r.last.Load() }

// Run executes one pass: load the registry, start every project's tasks, then
// join them. Failures are contained and reported, never returned; the only error
// is ErrPassInProgress.
func (r *Runner) Run(ctx context.Context, trigger Trigger) (*PassReport, error) {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Info("Pass skipped; previous pass still running", slog.String("trigger", string(trigger)))
		r.recorder.IncPassOutcome(metrics.ResultSkipped)
		return nil, ErrPassInProgress
	}
	defer r.busy.Store(false)

	report := &PassReport{ID: uuid.NewString(), Trigger: trigger, StartedAt: time.Now()}
	log := r.logger.With(logfields.PassID(report.ID))
	log.Info("Pass started", slog.String("trigger", string(trigger)))

	defer func() {
		report.FinishedAt = time.Now()
		elapsed := report.FinishedAt.Sub(report.StartedAt)
		report.Duration = elapsed.String()
		r.recorder.ObservePassDuration(elapsed)
		if report.OK() {
			r.recorder.IncPassOutcome(metrics.ResultSuccess)
		} else {
			r.recorder.IncPassOutcome(metrics.ResultFailed)
		}
		r.last.Store(report)
		log.Info("Pass finished",
			logfields.DurationMS(float64(elapsed.Milliseconds())),
			slog.Int("processed", len(report.Projects.Processed)),
			slog.Int("skipped", len(report.Projects.Skipped)),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed", report.Failed))
	}()

	reg, err := r.loadRegistry(r.registryPath)
	if err != nil {
		report.Error = err.Error()
		log.Error("Failed to load project registry", logfields.Path(r.registryPath), logfields.Error(err))
		return report, nil
	}

	var tasks []*publish.Task
	report.Projects = r.iterator.ForEachActive(ctx, reg, func(ctx context.Context, p project.Project) error {
		tasks = append(tasks, r.pipeline.Publish(ctx, report.ID, p)...)
		return nil
	})

	report.Outcomes = publish.Join(ctx, tasks)
	for _, o := range report.Outcomes {
		if o.OK() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	if missing := len(tasks) - len(report.Outcomes); missing > 0 {
		report.Failed += missing
		report.Error = "pass cancelled before all publications settled"
	}
	return report, nil
}
