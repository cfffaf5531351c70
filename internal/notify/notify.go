// Package notify announces successful publications to interested subscribers.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Publication describes one successful (tree, backend) publication.
type Publication struct {
	PassID    string    `json:"pass_id"`
	Project   string    `json:"project"`
	Domain    string    `json:"domain"`
	Tree      string    `json:"tree"`
	Backend   string    `json:"backend"`
	Locator   string    `json:"locator"`
	Record    string    `json:"record,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Payload encodes p, stamping the current time when unset.
func (p Publication) Payload() ([]byte, error) {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	return json.Marshal(p)
}

// Notifier delivers publication announcements. Delivery is best effort.
type Notifier interface {
	Announce(ctx context.Context, p Publication) error
	Close() error
}

// Noop discards announcements.
type Noop struct{}

func (Noop) Announce(context.Context, Publication) error { return nil }
func (Noop) Close() error                                { return nil }
