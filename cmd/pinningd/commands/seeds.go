package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

// SeedsCmd implements the 'seeds' command. It never creates a seed.
type SeedsCmd struct{}

func (s *SeedsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	return listSeeds(os.Stdout, cfg)
}

func listSeeds(w io.Writer, cfg *config.Config) error {
	reg, err := config.LoadRegistry(cfg.Registry)
	if err != nil {
		return err
	}
	seeds := seed.NewManager()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PROJECT\tDOMAIN\tWEBSITE\tAPI")
	for _, entry := range reg.Active {
		p, err := project.Load(cfg.ProjectsDir(), entry)
		if err != nil {
			_, _ = fmt.Fprintf(tw, "%s\t-\t(skipped)\t\n", project.DisplayName(entry))
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Domain,
			driveURL(seeds, p, seed.PurposeWebsite), driveURL(seeds, p, seed.PurposeAPI))
	}
	return tw.Flush()
}

func driveURL(m *seed.Manager, p project.Project, purpose seed.Purpose) string {
	if !m.Exists(p, purpose) {
		return "-"
	}
	s, err := m.Read(p, purpose)
	if err != nil {
		return "(unreadable)"
	}
	return drive.URLFor(s)
}
