package drive

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// DefaultCommand is the publisher executable looked up on PATH.
const DefaultCommand = "hyperdrive-publisher"

// CLIPublisher drives an external hyperdrive publisher process.
//
// The seed is written to the process's stdin as hex, never passed on the command
// line. The process prints one JSON object on stdout:
//
//	sync:   {"url": "hyper://...", "diff": [{"type": "add", "name": "/index.html"}]}
//	create: {"url": "hyper://..."}
type CLIPublisher struct {
	bin    string
	args   []string
	env    []string
	logger *slog.Logger
}

// CLIOptions configures a CLIPublisher.
type CLIOptions struct {
	// Command is the executable. Empty selects DefaultCommand.
	Command string
	// Args are prepended to every invocation.
	Args []string
	// Env replaces the process environment when non-nil.
	Env    []string
	Logger *slog.Logger
}

// NewCLIPublisher creates a CLIPublisher.
func NewCLIPublisher(opts CLIOptions) *CLIPublisher {
	bin := opts.Command
	if bin == "" {
		bin = DefaultCommand
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIPublisher{bin: bin, args: opts.Args, env: opts.Env, logger: logger}
}

// URL derives the drive URL locally.
func (p *CLIPublisher) URL(s seed.Seed) string { return URLFor(s) }

// Sync runs "<command> sync --local <path> --remote <path> [--timeout <ms>]".
func (p *CLIPublisher) Sync(ctx context.Context, s seed.Seed, localPath, remotePath string, timeout time.Duration) (SyncResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	args := []string{"sync", "--local", localPath, "--remote", remotePath}
	if timeout > 0 {
		args = append(args, "--timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	}

	var res SyncResult
	if err := p.run(ctx, s, &res, args...); err != nil {
		return SyncResult{}, err
	}
	if err := p.checkURL(s, res.URL); err != nil {
		return SyncResult{}, err
	}
	res.URL = URLFor(s)
	return res, nil
}

// Create runs "<command> create".
func (p *CLIPublisher) Create(ctx context.Context, s seed.Seed) (string, error) {
	var res struct {
		URL string `json:"url"`
	}
	if err := p.run(ctx, s, &res, "create"); err != nil {
		return "", err
	}
	if err := p.checkURL(s, res.URL); err != nil {
		return "", err
	}
	return URLFor(s), nil
}

// checkURL rejects a publisher that reports a drive other than the one the seed
// derives. An empty report is accepted.
func (p *CLIPublisher) checkURL(s seed.Seed, reported string) error {
	if reported == "" {
		return nil
	}
	want := URLFor(s)
	got, err := KeyFromURL(reported)
	if err != nil || Scheme+got != want {
		return errors.PublishError("publisher reported unexpected drive").
			WithContext("want", want).
			WithContext("got", reported).
			Build()
	}
	return nil
}

func (p *CLIPublisher) run(ctx context.Context, s seed.Seed, out any, args ...string) error {
	full := append(append([]string{}, p.args...), args...)
	cmd := exec.CommandContext(ctx, p.bin, full...)
	if p.env != nil {
		cmd.Env = p.env
	}
	cmd.Stdin = strings.NewReader(s.Hex() + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	stdout, err := cmd.Output()
	p.logger.Debug("Drive publisher finished",
		slog.String("command", p.bin),
		slog.String("op", args[0]),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.PublishError("drive publisher timed out").
				WithCause(ctxErr).
				WithContext("op", args[0]).
				Build()
		}
		msg := strings.TrimSpace(stderr.String())
		var ee *exec.ExitError
		if stderrors.As(err, &ee) && msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return errors.PublishError("drive publisher failed").
			WithCause(err).
			WithContext("op", args[0]).
			Build()
	}
	if err := json.Unmarshal(bytes.TrimSpace(stdout), out); err != nil {
		return errors.PublishError("drive publisher returned malformed output").
			WithCause(err).
			WithContext("op", args[0]).
			Build()
	}
	return nil
}
