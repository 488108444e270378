package commands

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/logging"
)

// NewRootCommand builds the featx command tree.
func NewRootCommand() *cobra.Command {
	var (
		verbose  bool
		logLevel string
		noColor  bool
	)

	root := &cobra.Command{
		Use:   "featx",
		Short: "Extract and mix log-domain audio features",
		Long: `featx computes Kaldi-compatible spectrogram and filterbank features
from audio files and mixes already-extracted features as if the
underlying signals had been added.

Extractors are configured with recipe files (YAML, TOML or JSON):

  extractor: fbank
  config:
    num_mel_bins: 80`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			if verbose {
				level = logging.DebugLevel
			}
			logging.SetLevel(level)
			if noColor {
				logging.DisableColors()
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	root.AddCommand(
		newListCommand(),
		newDimCommand(),
		newConfigCommand(),
		newExtractCommand(),
		newEnergyCommand(),
		newMixCommand(),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
