package daemon

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// Schedule is either a fixed interval or a cron expression. A six-field cron
// expression carries seconds.
type Schedule struct {
	Interval time.Duration
	Cron     string
}

// ScheduleFromConfig converts the schedule section of the config.
func ScheduleFromConfig(c config.ScheduleConfig) Schedule {
	if strings.TrimSpace(c.Cron) != "" {
		return Schedule{Cron: strings.TrimSpace(c.Cron)}
	}
	return Schedule{Interval: c.IntervalDuration()}
}

func (s Schedule) String() string {
	if s.Cron != "" {
		return "cron(" + s.Cron + ")"
	}
	return "every " + s.Interval.String()
}

func (s Schedule) definition() (gocron.JobDefinition, error) {
	if s.Cron != "" {
		return gocron.CronJob(s.Cron, len(strings.Fields(s.Cron)) == 6), nil
	}
	if s.Interval <= 0 {
		return nil, errors.ValidationError("schedule interval must be positive").
			WithContext("interval", s.Interval.String()).
			Build()
	}
	return gocron.DurationJob(s.Interval), nil
}

// Scheduler fires the pass function on a wall-clock schedule, once immediately on
// start. A tick that arrives while the previous pass still runs is dropped.
type Scheduler struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start registers passFn on schedule and starts the scheduler. A panic inside
// passFn is recovered and logged; later ticks still fire.
func (s *Scheduler) Start(schedule Schedule, passFn func()) error {
	def, err := schedule.definition()
	if err != nil {
		return err
	}
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(s.guard(passFn)),
		gocron.WithName("pass"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to schedule pass").
			WithContext("schedule", schedule.String()).
			Build()
	}
	s.job = job
	s.scheduler.Start()
	s.logger.Info("Scheduler started", slog.String("schedule", schedule.String()))
	return nil
}

// NextRun reports when the pass fires next.
func (s *Scheduler) NextRun() (time.Time, bool) {
	if s.job == nil {
		return time.Time{}, false
	}
	t, err := s.job.NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stop shuts the scheduler down, waiting for a running pass to return.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) guard(passFn func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Scheduled pass panicked",
					logfields.Error(fmt.Errorf("%v", r)),
					slog.String("stack", string(debug.Stack())))
			}
		}()
		passFn()
	}
}
