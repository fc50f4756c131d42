package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tbxark/homi/config"
	"github.com/tbxark/homi/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string

	conf      *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "homi",
		Short: "Homi - scope local service requests through a short conversation",
		Long: `Homi asks a few questions about a home service job (what, where, budget,
when) and turns the answers into a priced request for the marketplace.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newRequestsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) init() error {
	conf, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		conf.Log.Level = o.logLevel
	}
	logger, closer, err := logging.New(logging.Options{
		Level:      conf.Log.Level,
		Format:     conf.Log.Format,
		File:       conf.Log.File,
		MaxSizeMB:  conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAgeDays: conf.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	o.conf = conf
	o.logCloser = closer
	return nil
}
