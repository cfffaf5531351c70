package dns

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/util/keylock"
)

// Upserter is the reconciler surface consumed by the publish pipeline.
type Upserter interface {
	UpsertTXT(ctx context.Context, domain, name, data string, ttl int) error
}

// Reconciler replaces TXT records through a Provider.
type Reconciler struct {
	provider Provider
	recorder metrics.Recorder
	logger   *slog.Logger
	locks    keylock.Map
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(rc *Reconciler) { rc.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rc *Reconciler) {
		if l != nil {
			rc.logger = l
		}
	}
}

// NewReconciler creates a Reconciler for provider.
func NewReconciler(provider Provider, opts ...Option) *Reconciler {
	rc := &Reconciler{
		provider: provider,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// UpsertTXT leaves exactly one TXT record named name under domain carrying data.
//
// Existing TXT records with the same name are deleted before the new one is
// created. A failed listing aborts without touching the zone. A failed delete is
// logged and the create still runs. Calls for the same (domain, name) are
// serialized; the delete and create are not atomic towards outside readers.
func (r *Reconciler) UpsertTXT(ctx context.Context, domain, name, data string, ttl int) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	unlock := r.locks.Lock(domain + "\x00" + name)
	defer unlock()

	log := r.logger.With(logfields.Domain(domain), logfields.Record(name))

	records, err := r.provider.ListRecords(ctx, domain)
	if err != nil {
		r.recorder.IncDNSUpsert(name, metrics.ResultFailed)
		return errors.WrapError(err, errors.CategoryDNS, "list records failed").
			WithRetry(errors.RetryNextPass).
			WithContext("domain", domain).
			WithContext("name", name).
			Build()
	}

	for _, rec := range records {
		if rec.Type != TypeTXT || rec.Name != name {
			continue
		}
		if err := r.provider.DeleteRecord(ctx, domain, rec.ID); err != nil {
			log.Warn("Failed to delete stale TXT record", slog.String("id", rec.ID), logfields.Error(err))
			continue
		}
		log.Debug("Deleted stale TXT record", slog.String("id", rec.ID), slog.String("data", rec.Data))
	}

	created, err := r.provider.CreateRecord(ctx, domain, Record{Type: TypeTXT, Name: name, Data: data, TTL: ttl})
	if err != nil {
		r.recorder.IncDNSUpsert(name, metrics.ResultFailed)
		return errors.WrapError(err, errors.CategoryDNS, "create record failed").
			WithRetry(errors.RetryNextPass).
			WithContext("domain", domain).
			WithContext("name", name).
			Build()
	}
	r.recorder.IncDNSUpsert(name, metrics.ResultSuccess)
	log.Info("TXT record updated", slog.String("data", data), slog.String("id", created.ID))
	return nil
}
