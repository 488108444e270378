package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dim",
		Short: "Print the feature dimension of an extractor",
		Long: `Print the number of columns the extractor produces at a sampling rate,
without running extraction.

Example:
  featx dim -r fbank80.yaml -s 8000
  featx dim -e spectrogram`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleRate, err := cmd.Flags().GetInt("sample-rate")
			if err != nil {
				return fmt.Errorf("failed to read 'sample-rate' flag: %w", err)
			}
			if sampleRate <= 0 {
				return fmt.Errorf("--sample-rate must be positive")
			}

			ext, err := loadExtractor(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ext.FeatureDim(sampleRate))
			return nil
		},
	}

	addRecipeFlags(cmd)
	cmd.Flags().IntP("sample-rate", "s", 16000, "sampling rate in Hz")
	return cmd
}
