package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/features/recipe"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <extractor>",
		Short: "Print the default recipe of an extractor",
		Long: `Print the default recipe of a registered extractor, to be edited and
passed back with -r.

Example:
  featx config fbank > fbank.yaml
  featx config spectrogram --format toml -o spectrogram.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read 'format' flag: %w", err)
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to read 'output' flag: %w", err)
			}

			r, err := recipe.Default(nil, args[0])
			if err != nil {
				return err
			}

			if output != "" {
				if err := ensureDir(output); err != nil {
					return err
				}
				return recipe.Save(output, r)
			}

			format, err := recipe.ParseFormat(formatName)
			if err != nil {
				return err
			}
			return recipe.Encode(cmd.OutOrStdout(), r, format)
		},
	}

	cmd.Flags().StringP("format", "f", "yaml", "output format when printing (yaml, toml, json)")
	cmd.Flags().StringP("output", "o", "", "write to a file; the format follows its extension")
	return cmd
}
