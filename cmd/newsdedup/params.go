package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/newsdedup/pkg/newsdedup/config"
	"github.com/cognicore/newsdedup/pkg/newsdedup/lsh"
)

func newParamsCmd() *cobra.Command {
	def := config.Default()
	threshold := def.Threshold
	numPerm := def.NumPerm

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show the LSH banding chosen for a threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lsh.OptimalParams(threshold, numPerm)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "threshold:       %g\n", threshold)
			fmt.Fprintf(w, "num_perm:        %d\n", numPerm)
			fmt.Fprintf(w, "bands:           %d\n", p.Bands)
			fmt.Fprintf(w, "rows per band:   %d\n", p.Rows)
			fmt.Fprintf(w, "false positive:  %.4f\n", p.FalsePositive(threshold))
			fmt.Fprintf(w, "false negative:  %.4f\n", p.FalseNegative(threshold))
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", threshold, "Jaccard similarity threshold in (0, 1]")
	cmd.Flags().IntVar(&numPerm, "num-perm", numPerm, "MinHash permutations")
	return cmd
}
