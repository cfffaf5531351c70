package daemon

import (
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pinningd/internal/blockstore"
	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/dns"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/notify"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/publish"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// Assemble builds the production components described by cfg. A nil registry
// disables Prometheus metrics.
func Assemble(cfg *config.Config, reg *prom.Registry, logger *slog.Logger) (Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if reg != nil {
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	if cfg.DNS.Provider != config.DefaultDNSProvider {
		return Components{}, errors.ConfigError("unsupported DNS provider").
			WithContext("provider", cfg.DNS.Provider).
			Build()
	}
	apiClient := &http.Client{Timeout: 30 * time.Second}
	reconciler := dns.NewReconciler(
		dns.NewDigitalOcean(apiClient, cfg.DNS.APIURL, cfg.DNS.Token),
		dns.WithRecorder(recorder),
		dns.WithLogger(logger),
	)

	var registrar drive.Registrar = drive.NoopRegistrar{}
	if cfg.Drive.Store.Server != "" {
		registrar = drive.NewStoreClient(apiClient, cfg.Drive.Store.Server)
	}

	deps := publish.Deps{
		DNS:      reconciler,
		Recorder: recorder,
		Logger:   logger,
	}
	if !cfg.Drive.Disabled {
		publisher := drive.NewCLIPublisher(drive.CLIOptions{
			Command: cfg.Drive.Command,
			Args:    cfg.Drive.Args,
			Logger:  logger,
		})
		boot := &publish.Bootstrapper{
			Drive:     publisher,
			Registrar: registrar,
			DNS:       reconciler,
			TTL:       cfg.DNS.TTL,
			Logger:    logger,
		}
		deps.Drive = publisher
		deps.Seeds = seed.NewManager(
			seed.WithBootstrap(boot.Bootstrap),
			seed.WithRecorder(recorder),
			seed.WithLogger(logger),
		)
	}
	if !cfg.BlockStore.Disabled {
		switch cfg.BlockStore.Mode {
		case config.BlockStoreCLI:
			deps.BlockStore = blockstore.NewCLIClient(blockstore.CLIOptions{Bin: cfg.BlockStore.Bin})
		default:
			deps.BlockStore = blockstore.NewHTTPClient(&http.Client{}, cfg.BlockStore.API, logger)
		}
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify)
		if err != nil {
			// Publishing continues without announcements.
			logger.Warn("NATS notifier unavailable", logfields.Error(err))
		} else {
			notifier = n
		}
	}
	deps.Notifier = notifier

	pipeline := publish.New(deps, publish.Options{
		Budgets: publish.Budgets{
			WebsiteSync: cfg.Publish.WebsiteSyncBudget(),
			APISync:     cfg.Publish.APISyncBudget(),
			BlockStore:  cfg.Publish.BlockStoreBudget(),
		},
		TTL:           cfg.DNS.TTL,
		MaxConcurrent: cfg.Publish.MaxConcurrent,
	})

	runner := NewRunner(RunnerDeps{
		RegistryPath: cfg.Registry,
		Iterator:     project.NewIterator(cfg.ProjectsDir(), logger, recorder),
		Pipeline:     pipeline,
		Recorder:     recorder,
		Logger:       logger,
	})

	return Components{
		Runner:         runner,
		Registrar:      registrar,
		Notifier:       notifier,
		MetricsHandler: metricsHandler,
	}, nil
}
