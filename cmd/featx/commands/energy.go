package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/features/storage"
)

func newEnergyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "energy <features>...",
		Short: "Print the total energy of stored feature matrices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				m, err := storage.LoadMatrix(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", path, features.ComputeEnergy(m))
			}
			return nil
		},
	}
}
