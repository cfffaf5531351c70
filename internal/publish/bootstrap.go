package publish

import (
	"context"
	"encoding/hex"
	"log/slog"

	"git.home.luguber.info/inful/pinningd/internal/dns"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// Bootstrapper announces a drive the first time its seed is created: the drive
// is registered with the storage service, created, and its DNS record set.
type Bootstrapper struct {
	Drive     drive.Publisher
	Registrar drive.Registrar
	DNS       dns.Upserter
	TTL       int
	Logger    *slog.Logger
}

// Bootstrap implements seed.BootstrapFunc.
func (b *Bootstrapper) Bootstrap(ctx context.Context, p project.Project, purpose seed.Purpose, s seed.Seed) error {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	url := b.Drive.URL(s)
	logger.Info("Bootstrapping new drive",
		logfields.Project(p.Name),
		logfields.Purpose(string(purpose)),
		logfields.URL(url),
		slog.String("discovery_key", discoveryKeyHex(s)))

	if b.Registrar != nil {
		if err := b.Registrar.Add(ctx, url); err != nil {
			return err
		}
	}
	created, err := b.Drive.Create(ctx, s)
	if err != nil {
		return err
	}

	tree := project.TreeWebsite
	if purpose == seed.PurposeAPI {
		tree = project.TreeAPI
	}
	return b.DNS.UpsertTXT(ctx, p.Domain, dns.DriveName(string(tree)), dns.DriveData(created), b.TTL)
}

func discoveryKeyHex(s seed.Seed) string {
	return hex.EncodeToString(drive.DiscoveryKey(drive.PublicKey(s)))
}
