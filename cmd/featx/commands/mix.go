package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/features/storage"
	"github.com/RyanBlaney/sonido-features/logging"
)

func newMixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mix <a> <b>",
		Short: "Mix two stored feature matrices",
		Long: `Combine two log-power feature matrices of the same shape as if their
signals had been added, b scaled either by an explicit energy factor or
so that it sits at a signal-to-noise ratio below a.

Example:
  featx mix speech.msgpack noise.msgpack --snr 10 -o noisy.msgpack
  featx mix speech.msgpack music.msgpack --scale 0.3 -o mixed.msgpack`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to read 'output' flag: %w", err)
			}

			a, err := storage.LoadMatrix(args[0])
			if err != nil {
				return err
			}
			b, err := storage.LoadMatrix(args[1])
			if err != nil {
				return err
			}

			k, err := cmd.Flags().GetFloat64("scale")
			if err != nil {
				return fmt.Errorf("failed to read 'scale' flag: %w", err)
			}
			if cmd.Flags().Changed("snr") {
				snr, err := cmd.Flags().GetFloat64("snr")
				if err != nil {
					return fmt.Errorf("failed to read 'snr' flag: %w", err)
				}
				k, err = features.EnergyScalingFactor(features.ComputeEnergy(a), features.ComputeEnergy(b), snr)
				if err != nil {
					return err
				}
			}

			logging.Debug("Mixing features", logging.Fields{
				"a":     args[0],
				"b":     args[1],
				"scale": k,
			})

			mixed, err := features.Mix(a, b, k)
			if err != nil {
				return err
			}

			if err := ensureDir(output); err != nil {
				return err
			}
			if err := storage.SaveMatrix(output, mixed); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\tscale=%g\tenergy=%g\n", output, k, features.ComputeEnergy(mixed))
			return nil
		},
	}

	cmd.Flags().Float64("snr", 0, "signal-to-noise ratio of a over b in dB")
	cmd.Flags().Float64("scale", 1, "energy scaling factor applied to b")
	cmd.Flags().StringP("output", "o", "", "output matrix path")
	cmd.MarkFlagsMutuallyExclusive("snr", "scale")
	cmd.MarkFlagsOneRequired("snr", "scale")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
