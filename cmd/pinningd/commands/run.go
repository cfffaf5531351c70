package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pinningd/internal/daemon"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Listen string `help:"Admin server address, overriding admin.listen"`
	Watch  bool   `help:"Start a pass whenever the project registry changes"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if r.Listen != "" {
		cfg.Admin.Listen = r.Listen
	}
	if r.Watch {
		cfg.Schedule.WatchRegistry = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, err := daemon.Assemble(cfg, metrics.NewRegistry(), g.Logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, components, g.Logger)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
