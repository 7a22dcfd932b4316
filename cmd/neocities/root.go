package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/neocities-go/internal/app"
	"github.com/samvad-hq/neocities-go/internal/config"
	"github.com/samvad-hq/neocities-go/internal/logger"
	"github.com/samvad-hq/neocities-go/pkg/neocities"
	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand once the root pre-run has loaded config.
type cli struct {
	cfgFile    string
	jsonOutput bool

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "neocities",
		Short: "Manage a Neocities site from the command line",
		Long: `Inspect, upload, delete and sync the files of a Neocities site.
Credentials come from NEOCITIES_USERNAME and NEOCITIES_PASSWORD, configs/.env
or the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output results as JSON")

	root.AddCommand(
		c.infoCmd(),
		c.listCmd(),
		c.uploadCmd(),
		c.deleteCmd(),
		c.pushCmd(),
		c.previewCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.DebugObj("config loaded", "config", cfg.Redacted())
	c.cfg, c.log = cfg, log
	return nil
}

func (c *cli) client() (*neocities.Client, error) {
	return app.NewClient(c.cfg, c.log)
}

// sitename returns the first arg, falling back to the configured account.
func (c *cli) sitename(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return c.cfg.Username
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
