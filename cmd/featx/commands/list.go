package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/features"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered extractors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleRate, err := cmd.Flags().GetInt("sample-rate")
			if err != nil {
				return fmt.Errorf("failed to read 'sample-rate' flag: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFRAME SHIFT\tFEATURE DIM")
			for _, name := range features.Names() {
				ext, err := features.New(name, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%gs\t%d\n", name, ext.FrameShift(), ext.FeatureDim(sampleRate))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntP("sample-rate", "s", 16000, "sampling rate used for the feature dimension")
	return cmd
}
