package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pinningd/internal/config"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command line.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (YAML or TOML)" type:"path" env:"PINNINGD_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format override (text or json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run   RunCmd   `cmd:"" default:"1" help:"Run the reconciliation daemon"`
	Once  OnceCmd  `cmd:"" help:"Run a single pass and exit"`
	Seeds SeedsCmd `cmd:"" help:"List the drive addresses of every active project"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once so config loading is
// already logged. Commands refine it from the loaded configuration.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, config.NormalizeLogFormat(c.LogFormat), level)
	slog.SetDefault(g.Logger)
	return nil
}

// ConfigPath returns the configured path or the per-user default.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	return config.DefaultConfigPath()
}

// LoadConfig reads the configuration and applies its logging section. Flags win
// over the file.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath())
	if err != nil {
		return nil, err
	}
	level := config.NormalizeLogLevel(cfg.Logging.Level).SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := config.NormalizeLogFormat(cfg.Logging.Format)
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	g.Logger = newLogger(os.Stderr, format, level)
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Configuration loaded", slog.String("path", c.ConfigPath()), slog.String("summary", cfg.String()))
	return cfg, nil
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
