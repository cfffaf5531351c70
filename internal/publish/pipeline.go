// Package publish mirrors project content trees into the storage backends and
// points DNS at the result. Every (tree, backend) pair runs as its own Task;
// the DNS upsert of a task happens strictly after, and only after, a successful
// publication.
package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/blockstore"
	"git.home.luguber.info/inful/pinningd/internal/dns"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/notify"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// SeedSource hands out drive seeds.
type SeedSource interface {
	GetOrCreate(ctx context.Context, p project.Project, purpose seed.Purpose) (seed.Seed, error)
}

// Budgets bounds each backend call. A zero drive budget defers to the publisher.
type Budgets struct {
	WebsiteSync time.Duration
	APISync     time.Duration
	BlockStore  time.Duration
}

// Deps are the collaborators of a Pipeline. A nil Drive or BlockStore disables
// that backend.
type Deps struct {
	Seeds      SeedSource
	Drive      drive.Publisher
	BlockStore blockstore.Store
	DNS        dns.Upserter
	Notifier   notify.Notifier
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// Options tunes a Pipeline.
type Options struct {
	Budgets       Budgets
	TTL           int
	MaxConcurrent int
}

// Pipeline starts publication tasks.
type Pipeline struct {
	deps    Deps
	budgets Budgets
	ttl     int
	sem     chan struct{}
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	deps.Recorder = metrics.OrNoop(deps.Recorder)
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.TTL <= 0 {
		opts.TTL = dns.DefaultTTL
	}
	return &Pipeline{
		deps:    deps,
		budgets: opts.Budgets,
		ttl:     opts.TTL,
		sem:     make(chan struct{}, opts.MaxConcurrent),
	}
}

// PurposeFor maps a tree to the purpose of its drive seed.
func PurposeFor(t project.Tree) seed.Purpose {
	if t == project.TreeAPI {
		return seed.PurposeAPI
	}
	return seed.PurposeWebsite
}

// Publish starts one task per existing tree and enabled backend of p and returns
// without waiting for them.
func (pl *Pipeline) Publish(ctx context.Context, passID string, p project.Project) []*Task {
	var tasks []*Task
	for _, tree := range project.Trees {
		if !p.HasTree(tree) {
			continue
		}
		if pl.deps.Drive != nil {
			tasks = append(tasks, pl.start(ctx, passID, p, tree, BackendDrive, pl.publishDrive))
		}
		if pl.deps.BlockStore != nil {
			tasks = append(tasks, pl.start(ctx, passID, p, tree, BackendBlockStore, pl.publishBlockStore))
		}
	}
	return tasks
}

type stepFunc func(ctx context.Context, p project.Project, tree project.Tree, o *Outcome) error

func (pl *Pipeline) start(ctx context.Context, passID string, p project.Project, tree project.Tree, backend Backend, step stepFunc) *Task {
	t := newTask(p, tree, backend)
	go func() {
		o := Outcome{Project: p.Name, Domain: p.Domain, Tree: tree, Backend: backend}
		log := pl.deps.Logger.With(
			logfields.PassID(passID),
			logfields.Project(p.Name),
			logfields.Tree(string(tree)),
			logfields.Backend(string(backend)),
		)
		defer func() {
			if r := recover(); r != nil {
				o.Err = errors.InternalError(fmt.Sprintf("panic in publication: %v", r)).
					WithSeverity(errors.SeverityError).
					WithContext("stack", string(debug.Stack())).
					Build()
				log.Error("Publication panicked", logfields.Error(o.Err))
			}
			t.settle(o)
		}()

		select {
		case pl.sem <- struct{}{}:
			defer func() { <-pl.sem }()
		case <-ctx.Done():
			o.Err = ctx.Err()
			log.Warn("Publication cancelled before start", logfields.Error(o.Err))
			return
		}

		start := time.Now()
		err := step(ctx, p, tree, &o)
		o.Duration = time.Since(start)
		if err != nil {
			o.Err = err
			log.Error("Publication failed", logfields.DurationMS(float64(o.Duration.Milliseconds())), logfields.Error(err))
			return
		}
		log.Info("Published",
			logfields.Locator(o.Locator),
			logfields.Record(o.Record),
			logfields.DurationMS(float64(o.Duration.Milliseconds())))

		if err := pl.deps.Notifier.Announce(ctx, notify.Publication{
			PassID:  passID,
			Project: p.Name,
			Domain:  p.Domain,
			Tree:    string(tree),
			Backend: string(backend),
			Locator: o.Locator,
			Record:  o.Record,
		}); err != nil {
			log.Warn("Publication announcement failed", logfields.Error(err))
		}
	}()
	return t
}

func (pl *Pipeline) observe(tree project.Tree, backend Backend, start time.Time, err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case stderrors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultTimeout
	default:
		result = metrics.ResultFailed
	}
	pl.deps.Recorder.ObservePublish(string(tree), string(backend), time.Since(start), result)
}

func (pl *Pipeline) driveBudget(tree project.Tree) time.Duration {
	if tree == project.TreeAPI {
		return pl.budgets.APISync
	}
	return pl.budgets.WebsiteSync
}

func (pl *Pipeline) publishDrive(ctx context.Context, p project.Project, tree project.Tree, o *Outcome) error {
	start := time.Now()
	s, err := pl.deps.Seeds.GetOrCreate(ctx, p, PurposeFor(tree))
	if err != nil {
		pl.observe(tree, BackendDrive, start, err)
		return err
	}

	start = time.Now()
	res, err := pl.deps.Drive.Sync(ctx, s, p.TreeDir(tree), "/", pl.driveBudget(tree))
	pl.observe(tree, BackendDrive, start, err)
	if err != nil {
		return err
	}
	o.Locator = res.URL
	o.Diff = res.Counts()
	pl.deps.Logger.Info("Drive synced",
		logfields.Project(p.Name),
		logfields.Tree(string(tree)),
		logfields.URL(res.URL),
		slog.Any("changes", o.Diff))

	o.Record = dns.DriveName(string(tree))
	if err := pl.deps.DNS.UpsertTXT(ctx, p.Domain, o.Record, dns.DriveData(res.URL), pl.ttl); err != nil {
		return err
	}
	o.Upserted = true
	return nil
}

func (pl *Pipeline) publishBlockStore(ctx context.Context, p project.Project, tree project.Tree, o *Outcome) error {
	opts := blockstore.DefaultAddOptions()
	if pl.budgets.BlockStore > 0 {
		opts.Timeout = pl.budgets.BlockStore
	}

	start := time.Now()
	id, err := pl.deps.BlockStore.Add(ctx, p.TreeDir(tree), opts)
	pl.observe(tree, BackendBlockStore, start, err)
	if err != nil {
		return err
	}
	locator, err := blockstore.Canonical(id)
	if err != nil {
		return err
	}
	o.Locator = locator

	o.Record = dns.LinkName(string(tree))
	if err := pl.deps.DNS.UpsertTXT(ctx, p.Domain, o.Record, dns.LinkData(locator), pl.ttl); err != nil {
		return err
	}
	o.Upserted = true
	return nil
}
