// Package blockstore adds content trees to an IPFS (Kubo) node and reports the
// root CID. Two transports are provided: the Kubo RPC API over HTTP and the
// local ipfs CLI.
package blockstore

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
)

// DefaultTimeout bounds one add when AddOptions.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// AddOptions controls how a tree is added.
type AddOptions struct {
	// CIDVersion selects the CID version of the result (0 or 1).
	CIDVersion int
	// Pin keeps the added blocks from being garbage collected.
	Pin bool
	// Timeout bounds the whole add. Zero selects DefaultTimeout.
	Timeout time.Duration
	// Hidden includes entries whose name starts with a dot.
	Hidden bool
}

// DefaultAddOptions returns CIDv1, pinned, with the default timeout.
func DefaultAddOptions() AddOptions {
	return AddOptions{CIDVersion: 1, Pin: true, Timeout: DefaultTimeout}
}

func (o AddOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Store adds a directory tree recursively, never following symlinks, and returns
// the CID of its root.
type Store interface {
	Add(ctx context.Context, root string, opts AddOptions) (cid.Cid, error)
}
