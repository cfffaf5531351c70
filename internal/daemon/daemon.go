// Package daemon runs the reconciliation loop: a scheduler fires passes, a pass
// publishes every active project, and an optional admin server exposes status,
// metrics and a manual trigger.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/notify"
	"git.home.luguber.info/inful/pinningd/internal/retry"
	"git.home.luguber.info/inful/pinningd/internal/version"
)

// Status represents the lifecycle state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Components are the assembled collaborators of a Daemon.
type Components struct {
	Runner    *Runner
	Registrar drive.Registrar
	Notifier  notify.Notifier
	// MetricsHandler serves /metrics on the admin server; nil disables it.
	MetricsHandler http.Handler
}

// Daemon owns the schedule and everything a pass needs.
type Daemon struct {
	cfg        *config.Config
	components Components
	logger     *slog.Logger

	scheduler *Scheduler
	watcher   *RegistryWatcher
	admin     *AdminServer
	workers   WorkerGroup

	mu        sync.Mutex
	status    atomic.Value
	startTime time.Time
	runCtx    context.Context

	loginPolicy retry.Policy
}

// New creates a daemon from cfg and its assembled components.
func New(cfg *config.Config, c Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}
	if c.Runner == nil {
		return nil, errors.InternalError("pass runner is required").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if c.Notifier == nil {
		c.Notifier = notify.Noop{}
	}
	d := &Daemon{cfg: cfg, components: c, logger: logger, runCtx: context.Background(), loginPolicy: retry.DefaultPolicy()}
	d.status.Store(StatusStopped)
	return d, nil
}

// GetStatus returns the current lifecycle state.
func (d *Daemon) GetStatus() Status {
	s, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return s
}

// Run starts every component and blocks until ctx is cancelled, then stops.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.start(ctx); err != nil {
		d.status.Store(StatusError)
		d.shutdown()
		return err
	}
	<-ctx.Done()
	d.logger.Info("Shutdown requested")
	d.shutdown()
	return nil
}

func (d *Daemon) start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusStopped {
		return errors.DaemonError(fmt.Sprintf("daemon is not in stopped state: %s", d.GetStatus())).Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.runCtx = ctx
	d.logger.Info("Starting pinning daemon", slog.String("version", version.Version))

	d.loginRegistrar(ctx)

	if d.cfg.Admin.Listen != "" {
		d.admin = NewAdminServer(d, d.components.MetricsHandler, d.logger)
		if err := d.admin.Start(d.cfg.Admin.Listen, &d.workers); err != nil {
			return err
		}
	}

	if d.cfg.Schedule.WatchRegistry {
		w, err := NewRegistryWatcher(d.cfg.Registry, DefaultWatchDebounce, func() {
			if err := d.TriggerPass(TriggerRegistry); err != nil {
				d.logger.Info("Registry change ignored", logfields.Error(err))
			}
		}, d.logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			d.logger.Error("Failed to start registry watcher", logfields.Error(err))
			_ = w.Stop()
		} else {
			d.watcher = w
		}
	}

	s, err := NewScheduler(d.logger)
	if err != nil {
		return errors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	d.scheduler = s
	if err := s.Start(ScheduleFromConfig(d.cfg.Schedule), func() {
		_, _ = d.components.Runner.Run(d.runCtx, TriggerSchedule)
	}); err != nil {
		return err
	}

	d.status.Store(StatusRunning)
	d.logger.Info("Pinning daemon started",
		logfields.Path(d.cfg.ProjectsDir()),
		slog.String("registry", d.cfg.Registry),
		slog.String("admin", d.cfg.Admin.Listen))
	return nil
}

// loginRegistrar opens a session with the drive storage service, retrying
// transient failures. A final failure is logged; drives created later in the
// session will not be registered.
func (d *Daemon) loginRegistrar(ctx context.Context) {
	store := d.cfg.Drive.Store
	if d.components.Registrar == nil || store.Server == "" {
		return
	}
	d.logger.Info("Connecting to drive storage service", logfields.URL(store.Server))
	err := d.loginPolicy.Do(ctx, func(ctx context.Context) error {
		lctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return d.components.Registrar.Login(lctx, store.Username, store.Password)
	})
	if err != nil {
		d.logger.Error("Drive storage login failed", logfields.URL(store.Server), logfields.Error(err))
	}
}

func (d *Daemon) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.GetStatus(); st == StatusStopped || st == StatusStopping {
		return
	}
	d.status.Store(StatusStopping)

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Error("Failed to stop registry watcher", logfields.Error(err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			d.logger.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if d.admin != nil {
		if err := d.admin.Stop(ctx); err != nil {
			d.logger.Error("Failed to stop admin server", logfields.Error(err))
		}
	}
	if err := d.workers.StopAndWait(ctx); err != nil {
		d.logger.Warn("Workers did not finish before shutdown deadline", logfields.Error(err))
	}
	if err := d.components.Notifier.Close(); err != nil {
		d.logger.Warn("Failed to close notifier", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	d.logger.Info("Pinning daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
}

// TriggerPass starts a pass in the background. It fails with ErrPassInProgress
// when a pass is already running.
func (d *Daemon) TriggerPass(trigger Trigger) error {
	if d.components.Runner.Busy() {
		return ErrPassInProgress
	}
	ctx := d.runCtx
	if !d.workers.Go("pass-"+string(trigger), func() {
		_, _ = d.components.Runner.Run(ctx, trigger)
	}) {
		return errors.DaemonError("daemon is stopping").Build()
	}
	return nil
}

// RunOnce executes a single pass synchronously.
func (d *Daemon) RunOnce(ctx context.Context) (*PassReport, error) {
	d.loginRegistrar(ctx)
	defer func() { _ = d.components.Notifier.Close() }()
	return d.components.Runner.Run(ctx, TriggerManual)
}

// StatusSnapshot is the payload of the admin /status endpoint.
type StatusSnapshot struct {
	Status   Status      `json:"status"`
	Version  string      `json:"version"`
	Started  time.Time   `json:"started_at"`
	Uptime   string      `json:"uptime"`
	Busy     bool        `json:"busy"`
	NextPass *time.Time  `json:"next_pass,omitempty"`
	LastPass *PassReport `json:"last_pass,omitempty"`
}

// Snapshot returns the current status.
func (d *Daemon) Snapshot() StatusSnapshot {
	d.mu.Lock()
	started := d.startTime
	sched := d.scheduler
	d.mu.Unlock()

	snap := StatusSnapshot{
		Status:   d.GetStatus(),
		Version:  version.Version,
		Started:  started,
		Busy:     d.components.Runner.Busy(),
		LastPass: d.components.Runner.Last(),
	}
	if !started.IsZero() {
		snap.Uptime = time.Since(started).Truncate(time.Second).String()
	}
	if sched != nil {
		if next, ok := sched.NextRun(); ok {
			snap.NextPass = &next
		}
	}
	return snap
}
