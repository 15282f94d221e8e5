// Package cmd provides the ledgerctl commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	debug     bool
	locale    string
	policy    string
	tolerance string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Check and replay double-entry batches offline",
	Long: `ledgerctl runs the balancing rules of the ledger service without a server.

It supports:
- Checking a finished batch against the commit gate
- Replaying a recorded editing session step by step
- Searching a chart of accounts file

Example:
  ledgerctl check batch.yaml
  ledgerctl replay --policy last-blur session.yaml
  ledgerctl accounts --chart chart.yaml paliwo`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(os.Stderr, debug)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "pl-PL", "locale used to read and print amounts")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", "final-state", "split trigger policy: final-state or last-blur")
	rootCmd.PersistentFlags().StringVar(&tolerance, "tolerance", "0.01", "largest difference treated as balanced")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(accountsCmd)
}

func balancerOptions() (balancer.Options, error) {
	p, err := balancer.ParseTriggerPolicy(policy)
	if err != nil {
		return balancer.Options{}, err
	}
	tol, err := decimal.NewFromString(tolerance)
	if err != nil {
		return balancer.Options{}, fmt.Errorf("tolerance %q: %w", tolerance, err)
	}
	return balancer.Options{Tolerance: tol, Policy: p}, nil
}

func amountLocale() amount.Locale {
	return amount.LocaleFor(locale)
}

// printVerdict writes the totals and every problem of a commit gate verdict.
func printVerdict(cmd *cobra.Command, v balancer.Verdict) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Debit:      %s\n", v.Totals.Debit)
	fmt.Fprintf(out, "Credit:     %s\n", v.Totals.Credit)
	fmt.Fprintf(out, "Difference: %s\n", v.Totals.Difference)
	if v.Eligible {
		fmt.Fprintln(out, "Batch can be committed.")
		return
	}
	fmt.Fprintln(out, "Batch cannot be committed:")
	for _, p := range v.Problems {
		fmt.Fprintf(out, "  - %s\n", p.Error())
	}
}
