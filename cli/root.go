// Package cli implements the agrispike command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurofarm/agrispike/config"
)

// RootOptions holds the global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand builds the command tree. Config is loaded once in the
// persistent pre-run so every subcommand sees the same settings.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "agrispike",
		Short:         "Neuromorphic wireless agriculture node",
		Long:          "Samples field sensors into spike trains over an nRF24L01+ link,\nor receives them into a spiking decision network driving irrigation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if opts.ConfigPath != "" {
				loaded, err := config.Load(opts.ConfigPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			opts.cfg = cfg

			level := cfg.LogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(opts.log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewTxCommand(opts))
	cmd.AddCommand(NewRxCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))

	return cmd
}
