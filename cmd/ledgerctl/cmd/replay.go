package cmd

import (
	"fmt"
	"log/slog"

	"github.com/sheikh-saqib/double-entry-balancer/internal/script"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a recorded editing session",
	Long: `Replay focus, amount, blur and field edits against a fresh session and
print what every step did, the resulting lines and the commit gate verdict.

A policy set in the script overrides --policy.

Example:
  ledgerctl replay session.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	opts, err := balancerOptions()
	if err != nil {
		return err
	}

	s, err := script.LoadScript(args[0])
	if err != nil {
		return err
	}
	slog.Debug("script loaded", "path", args[0], "steps", len(s.Steps))

	res, err := script.Replay(opts, s, amountLocale())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("print replay: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	printVerdict(cmd, res.Verdict)
	return nil
}
