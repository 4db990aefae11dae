package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// cli holds the persistent flags shared by every subcommand.
type cli struct {
	ephemeral bool
	verbose   bool
	jsonOut   bool

	// loadConfig is config.Load outside tests.
	loadConfig func(ctx context.Context) (*config.Config, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&cli{loadConfig: config.Load})
}

func newRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "evalctl",
		Short: "Resident competency evaluations from the terminal",
		Long: `evalctl reads and edits the shared evaluations document.

Configuration comes from the same sources as the server: GAUTIER_CONFIG
names an optional YAML file and GAUTIER_* variables override it.

Run "evalctl tui" for the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "keep the local copy in memory only")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log sync activity to stderr")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		c.listCmd(),
		c.showCmd(),
		c.saveCmd(),
		c.deleteCmd(),
		c.pullCmd(),
		c.exportCmd(),
		c.statsCmd(),
		c.tuiCmd(),
		c.smokeCmd(),
	)
	return root
}

// open builds a Service without its background poller. When pull is set it
// pulls once and warns on stderr if the data shown is stale.
func (c *cli) open(cmd *cobra.Command, pull bool) (*service.Service, *config.Config, error) {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if c.ephemeral {
		cfg.LocalStore = config.LocalStore{Driver: config.DriverMemory}
	}

	svc, err := service.FromConfig(ctx, cfg, logger.Get(), service.WithPollInterval(0))
	if err != nil {
		return nil, nil, err
	}
	if pull {
		if res := svc.Refresh(ctx); res.Stale() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: remote unreachable, showing %s data (%d records)\n", res.Source, res.Records)
		}
	}
	return svc, cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
