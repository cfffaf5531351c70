package seed

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/util/keylock"
)

// BootstrapFunc runs once right after a new seed has been persisted.
type BootstrapFunc func(ctx context.Context, p project.Project, purpose Purpose, s Seed) error

// Manager reads and lazily creates seeds.
type Manager struct {
	bootstrap BootstrapFunc
	recorder  metrics.Recorder
	logger    *slog.Logger
	random    io.Reader
	locks     keylock.Map
}

// Option configures a Manager.
type Option func(*Manager)

// WithBootstrap sets the hook run after a seed is first created.
func WithBootstrap(fn BootstrapFunc) Option {
	return func(m *Manager) { m.bootstrap = fn }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRandom replaces the entropy source.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.random = r }
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the seed file location for (p, purpose).
func (m *Manager) Path(p project.Project, purpose Purpose) string {
	return filepath.Join(p.PrivateDir(), purpose.FileName())
}

// Exists reports whether a seed file is present. Read errors other than absence
// count as present.
func (m *Manager) Exists(p project.Project, purpose Purpose) bool {
	_, err := os.Stat(m.Path(p, purpose))
	return !stderrors.Is(err, fs.ErrNotExist)
}

// Read returns the stored seed without ever creating one.
func (m *Manager) Read(p project.Project, purpose Purpose) (Seed, error) {
	path := m.Path(p, purpose)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Seed{}, errors.NewError(errors.CategoryNotFound, "seed not found").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return Seed{}, errors.SeedError("seed unreadable").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	s, err := FromBytes(data)
	if err != nil {
		return Seed{}, errors.SeedError("seed corrupt").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return s, nil
}

// GetOrCreate returns the seed for (p, purpose), creating and persisting one when
// none exists. An existing seed file is never rewritten. A seed that exists but
// cannot be read or has the wrong length is an error; it is never replaced.
//
// After a new seed is persisted the bootstrap hook runs. Its failure is logged
// and counted but the seed is still returned.
func (m *Manager) GetOrCreate(ctx context.Context, p project.Project, purpose Purpose) (Seed, error) {
	unlock := m.locks.Lock(p.Dir + "\x00" + string(purpose))
	defer unlock()

	s, err := m.Read(p, purpose)
	if err == nil {
		return s, nil
	}
	if !errors.HasCategory(err, errors.CategoryNotFound) {
		return Seed{}, err
	}

	log := m.logger.With(logfields.Project(p.Name), logfields.Purpose(string(purpose)))
	log.Info("Generating new seed", logfields.Path(m.Path(p, purpose)))

	s, err = m.create(p, purpose)
	if err != nil {
		return Seed{}, err
	}
	m.recorder.IncSeedCreated(string(purpose))

	if m.bootstrap != nil {
		if err := m.bootstrap(ctx, p, purpose, s); err != nil {
			m.recorder.IncBootstrapFailure(string(purpose))
			log.Error("Drive bootstrap failed; seed kept", logfields.Error(err))
		}
	}
	return s, nil
}

func (m *Manager) create(p project.Project, purpose Purpose) (Seed, error) {
	var s Seed
	if _, err := io.ReadFull(m.random, s[:]); err != nil {
		return Seed{}, errors.InternalError("failed to generate seed").
			WithSeverity(errors.SeverityError).
			WithCause(err).
			Build()
	}
	if err := os.MkdirAll(p.PrivateDir(), 0o700); err != nil {
		return Seed{}, errors.SeedError("failed to create private directory").
			WithCause(err).
			WithContext("path", p.PrivateDir()).
			Build()
	}
	path := m.Path(p, purpose)
	if err := renameio.WriteFile(path, s[:], 0o600); err != nil {
		return Seed{}, errors.SeedError("failed to persist seed").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return s, nil
}
