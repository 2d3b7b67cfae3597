package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ltikhonov/primordia/internal/decompose"
)

var recomposeOut string

// recomposeCmd represents the recompose command
var recomposeCmd = &cobra.Command{
	Use:   "recompose <report-or-decomposition.json>",
	Short: "Reconstruct the original value from its prime factors",
	Long: `Recompose reads a decomposition (bare, or embedded in a report
produced by 'decompose --json') and reconstructs a value equivalent to
the original input.

Reconstruction is exact for self-describing domains and equivalent
modulo ordering for the rest.

Example:
  primordia recompose report.json
  primordia recompose decomposition.json --out value.json
  primordia decompose data.json --json - | primordia recompose -`,
	Args: cobra.ExactArgs(1),
	RunE: runRecompose,
}

func init() {
	rootCmd.AddCommand(recomposeCmd)

	recomposeCmd.Flags().StringVar(&recomposeOut, "out", "", "output path for the reconstructed value (default: stdout)")
}

func runRecompose(cmd *cobra.Command, args []string) error {
	d, err := readDecomposition(args[0])
	if err != nil {
		return err
	}

	manager := decompose.NewManager(nil, nil, 0)
	value, err := manager.Recompose(d)
	if err != nil {
		return fmt.Errorf("recompose failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Recomposed %d factors via %s\n", len(d.Factors), d.Method)
	}

	return writeJSON(value, recomposeOut)
}
