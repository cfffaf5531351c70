package drive

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// Change is one entry of a sync diff.
type Change struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SyncResult is what a sync reports back.
type SyncResult struct {
	URL  string   `json:"url"`
	Diff []Change `json:"diff"`
}

// Counts tallies the diff by change type.
func (r SyncResult) Counts() map[string]int {
	out := make(map[string]int, 3)
	for _, c := range r.Diff {
		out[c.Type]++
	}
	return out
}

// Publisher mirrors a local tree into the drive identified by a seed.
type Publisher interface {
	// Sync makes remotePath of the drive match localPath. A zero timeout lets
	// the publisher apply its own default.
	Sync(ctx context.Context, s seed.Seed, localPath, remotePath string, timeout time.Duration) (SyncResult, error)
	// Create announces a new, empty drive and returns its URL.
	Create(ctx context.Context, s seed.Seed) (string, error)
	// URL returns the drive URL for s without any I/O.
	URL(s seed.Seed) string
}

// Registrar asks a drive storage service to keep a drive seeded.
type Registrar interface {
	Login(ctx context.Context, username, password string) error
	Add(ctx context.Context, url string) error
}
