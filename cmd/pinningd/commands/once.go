package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pinningd/internal/daemon"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// OnceCmd implements the 'once' command.
type OnceCmd struct {
	JSON bool `name:"json" help:"Print the pass report as JSON"`
}

func (o *OnceCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, err := daemon.Assemble(cfg, nil, g.Logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, components, g.Logger)
	if err != nil {
		return err
	}
	report, err := d.RunOnce(ctx)
	if err != nil {
		return err
	}
	if err := printReport(os.Stdout, report, o.JSON); err != nil {
		return err
	}
	if !report.OK() {
		return errors.PublishError("pass finished with failures").
			WithContext("pass_id", report.ID).
			WithContext("failed", report.Failed).
			Build()
	}
	return nil
}

func printReport(w io.Writer, r *daemon.PassReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "pass %s: %s\n", r.ID, r.Error)
	}
	for _, o := range r.Outcomes {
		status := "ok"
		if !o.OK() {
			status = "FAILED"
		}
		_, _ = fmt.Fprintf(w, "%-7s %-30s %-8s %-11s %s\n", status, o.Domain, o.Tree, o.Backend, o.Locator)
	}
	for _, name := range r.Projects.Skipped {
		_, _ = fmt.Fprintf(w, "skipped %s\n", name)
	}
	_, err := fmt.Fprintf(w, "pass %s finished in %s: %d succeeded, %d failed\n", r.ID, r.Duration, r.Succeeded, r.Failed)
	return err
}
