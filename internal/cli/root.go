// Package cli wires the tracker's cobra commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/exercisetracker/internal/config"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// options holds values shared by every subcommand.
type options struct {
	port  int
	dbURL string
	cfg   config.Config
}

// NewRootCommand builds the tracker command tree. Running it without a
// subcommand serves the API.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Exercise tracker API",
		Long:          `Records users and their exercise sessions and serves filtered exercise logs over HTTP.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			if cmd.Flags().Changed("port") {
				opts.cfg.Port = opts.port
			}
			if cmd.Flags().Changed("db-url") {
				opts.cfg.DatabaseURL = opts.dbURL
			}
			return setupLogging(opts.cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	root.PersistentFlags().IntVar(&opts.port, "port", 3000, "HTTP port (overrides PORT)")
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", "", "database connection string (overrides DB_URL)")

	root.AddCommand(newServeCommand(opts), newPurgeCommand(opts), newVersionCommand())
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	return nil
}
