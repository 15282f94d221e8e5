package cmd

import (
	"errors"
	"log/slog"

	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/script"
	"github.com/spf13/cobra"
)

var errNotEligible = errors.New("batch is not eligible for commit")

var checkCmd = &cobra.Command{
	Use:   "check <batch.yaml>",
	Short: "Run the commit gate on a batch file",
	Long: `Run the commit gate on a finished batch and list every problem found.

The command exits non-zero when the batch cannot be committed.

Example:
  ledgerctl check batch.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := balancerOptions()
	if err != nil {
		return err
	}

	batch, err := script.LoadBatch(args[0])
	if err != nil {
		return err
	}
	slog.Debug("batch loaded", "path", args[0], "lines", len(batch.Lines))

	verdict := script.Check(balancer.New(opts), batch)
	printVerdict(cmd, verdict)
	if !verdict.Eligible {
		return errNotEligible
	}
	return nil
}
