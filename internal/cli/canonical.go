package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ltikhonov/primordia/internal/decompose"
)

var canonicalOut string

// canonicalCmd represents the canonical command
var canonicalCmd = &cobra.Command{
	Use:   "canonical <report-or-decomposition.json>",
	Short: "Derive the canonical representation of a decomposition",
	Long: `Canonical reads a decomposition and derives its deterministic
canonical form: the same factors always map to the same bytes, no
matter what order they were produced in.

Example:
  primordia canonical report.json
  primordia canonical decomposition.json --out canonical.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCanonical,
}

func init() {
	rootCmd.AddCommand(canonicalCmd)

	canonicalCmd.Flags().StringVar(&canonicalOut, "out", "", "output path for the canonical form (default: stdout)")
}

func runCanonical(cmd *cobra.Command, args []string) error {
	d, err := readDecomposition(args[0])
	if err != nil {
		return err
	}

	manager := decompose.NewManager(nil, nil, 0)
	canonical, err := manager.Canonical(d)
	if err != nil {
		return fmt.Errorf("canonicalize failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Kind: %s\n", canonical.Kind)
		fmt.Fprintf(os.Stderr, "Coherence norm: %.3f\n", canonical.CoherenceNorm)
	}

	return writeJSON(canonical, canonicalOut)
}
