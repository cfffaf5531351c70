package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pinningd/cmd/pinningd/commands"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	parser := kong.Parse(cli,
		kong.Name("pinningd"),
		kong.Description("Republishes project sites to peer-to-peer drives and IPFS and keeps their DNS discovery records current."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
