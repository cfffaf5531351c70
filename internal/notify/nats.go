package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// NATSNotifier publishes announcements on <subject>.<domain-with-underscores>.
type NATSNotifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSNotifier connects to cfg.NATSURL.
func NewNATSNotifier(cfg config.NotifyConfig) (*NATSNotifier, error) {
	if cfg.NATSURL == "" {
		return nil, errors.ConfigError("notify.nats_url is required").Build()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = config.DefaultNotifySubject
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("pinningd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	n := &NATSNotifier{conn: conn, subject: subject}
	if cfg.JetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, errors.NetworkError("failed to create JetStream context").WithCause(err).Build()
		}
		n.js = js
	}

	slog.Info("NATS notifier initialized", logfields.URL(cfg.NATSURL), slog.String("subject", subject), slog.Bool("jetstream", cfg.JetStream))
	return n, nil
}

// SubjectFor returns the subject an announcement for domain is published on.
func SubjectFor(base, domain string) string {
	return base + "." + strings.ReplaceAll(domain, ".", "_")
}

// Announce publishes p.
func (n *NATSNotifier) Announce(ctx context.Context, p Publication) error {
	data, err := p.Payload()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal publication").Build()
	}
	subject := SubjectFor(n.subject, p.Domain)

	if n.js != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := n.js.Publish(ctx, subject, data); err != nil {
			return errors.NetworkError("failed to publish announcement").
				WithCause(err).
				WithContext("subject", subject).
				Build()
		}
		return nil
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return errors.NetworkError("failed to publish announcement").
			WithCause(fmt.Errorf("%s: %w", subject, err)).
			Build()
	}
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
