package project

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
)

// ProcessFunc handles one project. Errors and panics are contained by the iterator.
type ProcessFunc func(ctx context.Context, p Project) error

// IterationReport lists project names by outcome, in registry order.
type IterationReport struct {
	Processed []string `json:"processed"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
}

// Iterator walks the active projects of a registry.
type Iterator struct {
	projectsDir string
	logger      *slog.Logger
	recorder    metrics.Recorder
}

// NewIterator creates an Iterator resolving project directories under projectsDir.
func NewIterator(projectsDir string, logger *slog.Logger, recorder metrics.Recorder) *Iterator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Iterator{projectsDir: projectsDir, logger: logger, recorder: metrics.OrNoop(recorder)}
}

// ForEachActive calls fn for every active project in order. A project whose
// config is missing is skipped. A failing or panicking fn is logged and the
// next project still runs. Iteration stops early only when ctx is done.
func (it *Iterator) ForEachActive(ctx context.Context, reg *config.Registry, fn ProcessFunc) IterationReport {
	var report IterationReport
	if reg == nil {
		return report
	}
	for _, entry := range reg.Active {
		if ctx.Err() != nil {
			it.logger.Warn("Project iteration cancelled", logfields.Error(ctx.Err()))
			break
		}
		name := DisplayName(entry)
		log := it.logger.With(logfields.Project(name))

		p, err := Load(it.projectsDir, entry)
		if err != nil {
			log.Warn("Project skipped", logfields.Error(err))
			report.Skipped = append(report.Skipped, name)
			it.recorder.IncProjectResult(metrics.ResultSkipped)
			continue
		}

		if err := it.safeCall(ctx, fn, p); err != nil {
			log.Error("Project processing failed", logfields.Domain(p.Domain), logfields.Error(err))
			report.Failed = append(report.Failed, name)
			it.recorder.IncProjectResult(metrics.ResultFailed)
			continue
		}
		report.Processed = append(report.Processed, name)
		it.recorder.IncProjectResult(metrics.ResultSuccess)
	}
	return report
}

func (it *Iterator) safeCall(ctx context.Context, fn ProcessFunc, p Project) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalError(fmt.Sprintf("panic while processing project: %v", r)).
				WithSeverity(errors.SeverityError).
				WithContext("project", p.Name).
				WithContext("stack", string(debug.Stack())).
				Build()
		}
	}()
	return fn(ctx, p)
}
