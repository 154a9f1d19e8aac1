package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/audit"
	"github.com/sadopc/sqlcraft/internal/config"
	"github.com/sadopc/sqlcraft/internal/history"
	"github.com/sadopc/sqlcraft/internal/prompt"
	"github.com/sadopc/sqlcraft/internal/service"
	"github.com/sadopc/sqlcraft/internal/theme"

	// Register database adapters
	_ "github.com/sadopc/sqlcraft/internal/adapter/mysql"
	_ "github.com/sadopc/sqlcraft/internal/adapter/postgres"
	_ "github.com/sadopc/sqlcraft/internal/adapter/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds the persistent flags and the state built from them.
type cli struct {
	configPath string
	connection string
	envFiles   []string
	themeName  string
	yes        bool

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "sqlcraft",
		Short: "Build and run MySQL statements from structured input",
		Long: `sqlcraft assembles SELECT, UPDATE, CREATE TABLE and ALTER TABLE
statements from query-builder state, serves them over an HTTP API, and
generates PHP data-access classes.

Examples:
  sqlcraft serve --addr :8080
  sqlcraft render update -f update.yaml
  sqlcraft alter users -f actions.yaml
  sqlcraft codegen --table users --namespace 'App\Data'`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&c.configPath, "config", "c", "", "Config file path")
	f.StringVarP(&c.connection, "connection", "C", "", "Saved connection name (default: the configured default)")
	f.StringSliceVar(&c.envFiles, "env-file", nil, "Dotenv files to load before reading SQLCRAFT_* variables (default .env)")
	f.StringVar(&c.themeName, "theme", "default", "Colour theme (default, light, monokai)")
	f.BoolVarP(&c.yes, "yes", "y", false, "Apply without asking for confirmation")

	root.AddCommand(
		newServeCmd(c),
		newRenderCmd(c),
		newQueryCmd(c),
		newBrowseCmd(c),
		newAlterCmd(c),
		newCodegenCmd(c),
		newHistoryCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) loadConfig() error {
	envFiles := c.envFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	config.LoadEnvFiles(envFiles...)

	var err error
	if c.configPath != "" {
		c.cfg, err = config.Load(c.configPath)
	} else {
		c.cfg, err = config.LoadDefault()
	}
	if err != nil {
		if c.configPath != "" {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		c.cfg = config.DefaultConfig()
	}
	c.cfg.ApplyEnv()
	return nil
}

func (c *cli) theme() *theme.Theme { return theme.Get(c.themeName) }

// styled reports whether w is a terminal worth colouring.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (c *cli) notifier(cmd *cobra.Command) prompt.Notifier {
	return prompt.Writer{W: cmd.ErrOrStderr(), Theme: c.theme()}
}

// confirmer asks on the terminal unless --yes was given. Without a terminal
// nothing destructive is applied.
func (c *cli) confirmer(cmd *cobra.Command) prompt.Confirmer {
	if c.yes {
		return prompt.Static(true)
	}
	if !styled(cmd.OutOrStdout()) {
		return prompt.Static(false)
	}
	return prompt.Terminal{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Theme: c.theme()}
}

// openService connects to the selected connection and wires history and
// audit from the config. The returned func releases everything.
func (c *cli) openService(ctx context.Context) (*service.Service, func(), error) {
	sc, err := c.cfg.Connection(c.connection)
	if err != nil {
		return nil, nil, err
	}
	dsn := sc.BuildDSN()
	conn, err := adapter.Open(ctx, sc.Adapter, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", sc.DisplayString(), err)
	}
	closers := []io.Closer{conn}

	opts := service.Options{
		PageSize:    c.cfg.Browse.PageSize,
		MaxPageSize: c.cfg.Browse.MaxPageSize,
	}

	if c.cfg.History.Enabled {
		if path, err := c.cfg.HistoryPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open history: %v\n", err)
		} else if h, err := history.Open(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open history: %v\n", err)
		} else {
			opts.History = h
			closers = append(closers, h)
		}
	}

	if c.cfg.Audit.Enabled {
		if path, err := c.cfg.AuditPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open audit log: %v\n", err)
		} else if l, err := audit.New(path, c.cfg.Audit.MaxSizeMB); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open audit log: %v\n", err)
		} else {
			opts.Audit = l.WithDSN(dsn)
			closers = append(closers, l)
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
	return service.New(conn, opts), cleanup, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sqlcraft %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nSupported adapters:")
			for _, name := range adapter.Names() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
		},
	}
}
