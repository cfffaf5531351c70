package blockstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// CLIClient adds trees through the local Kubo "ipfs" binary.
type CLIClient struct {
	bin string
	env []string
}

// CLIOptions configures a CLIClient.
type CLIOptions struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env optionally overrides the command environment (e.g. to set IPFS_PATH).
	Env []string
}

// NewCLIClient creates a CLIClient.
func NewCLIClient(opts CLIOptions) *CLIClient {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &CLIClient{bin: bin, env: opts.Env}
}

// Add runs "ipfs add -r -Q" on root. Symlinks are stored as links, not followed.
func (c *CLIClient) Add(ctx context.Context, root string, opts AddOptions) (cid.Cid, error) {
	root = filepath.Clean(root)
	if err := checkRoot(root); err != nil {
		return cid.Undef, err
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	args := []string{
		"add", "-r", "-Q",
		"--cid-version=" + strconv.Itoa(opts.CIDVersion),
		"--pin=" + strconv.FormatBool(opts.Pin),
	}
	if opts.Hidden {
		args = append(args, "--hidden")
	}
	args = append(args, root)

	out, err := c.run(ctx, args...)
	if err != nil {
		if ctx.Err() != nil {
			return cid.Undef, timeoutError(ctx.Err(), root)
		}
		return cid.Undef, errors.PublishError("ipfs add failed").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	return Parse(string(out))
}

func (c *CLIClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	var ee *exec.ExitError
	if stderrors.As(err, &ee) {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return nil, fmt.Errorf("ipfs: %s", s)
		}
		return nil, fmt.Errorf("ipfs: %w", err)
	}
	return nil, err
}
