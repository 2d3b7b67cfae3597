package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/decompose"
	"github.com/ltikhonov/primordia/internal/model"
)

var (
	coherenceFramePath string
	coherenceOut       string
)

// coherenceCmd represents the coherence command
var coherenceCmd = &cobra.Command{
	Use:   "coherence <report-or-decomposition.json>",
	Short: "Measure coherence of a decomposition",
	Long: `Coherence re-derives the canonical form of a stored decomposition
and computes the measure set over it: representation completeness,
factor integrity, and, when an observer frame is given, observer
invariance and trilateral coherence.

All values lie in [0, 1]. Higher is more coherent.

Example:
  primordia coherence report.json
  primordia coherence report.json --frame frames/auditor.json
  primordia coherence decomposition.json --json measures.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCoherence,
}

func init() {
	rootCmd.AddCommand(coherenceCmd)

	coherenceCmd.Flags().StringVar(&coherenceFramePath, "frame", "", "observer frame file (JSON or YAML)")
	coherenceCmd.Flags().StringVar(&coherenceOut, "json", "", "write measures as JSON to this path")
}

func runCoherence(cmd *cobra.Command, args []string) error {
	d, err := readDecomposition(args[0])
	if err != nil {
		return err
	}

	var frame *model.ObserverFrame
	if coherenceFramePath != "" {
		frame, err = readFrame(coherenceFramePath)
		if err != nil {
			return err
		}
	}

	manager := decompose.NewManager(nil, nil, 0)
	canonical, err := manager.Canonical(d)
	if err != nil {
		return fmt.Errorf("canonicalize failed: %w", err)
	}

	measures := coherence.MeasureAll(d, canonical, frame)

	if coherenceOut != "" {
		return writeJSON(measures, coherenceOut)
	}

	for _, m := range measures {
		fmt.Printf("%-30s %.3f  (%s, frame: %s)\n", m.Metric, m.Value, m.Normalization, m.ReferenceFrame)
	}
	return nil
}
