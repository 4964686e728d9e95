package main

import (
	"github.com/spf13/cobra"

	"github.com/qri-io/ncdiff/snapshot"
)

func newSnapshot(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot FILE",
		Short: "print the structural snapshot of a container as YAML",
		Long: "snapshot writes the groups, dimensions, variables & attributes of a container as YAML. " +
			"Snapshots can be compared like any other container, so a reference structure can live in version control.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := g.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return snapshot.Encode(cmd.OutOrStdout(), root)
		},
	}
}
