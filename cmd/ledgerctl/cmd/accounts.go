package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sheikh-saqib/double-entry-balancer/internal/accounts"
	"github.com/spf13/cobra"
)

var (
	chartPath string
	limit     int
)

var accountsCmd = &cobra.Command{
	Use:   "accounts [query]",
	Short: "Search a chart of accounts file",
	Long: `Search accounts by number prefix or by name. Without a query the chart is
listed in number order.

Example:
  ledgerctl accounts --chart chart.yaml 402
  ledgerctl accounts --chart chart.yaml paliwo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccounts,
}

func init() {
	accountsCmd.Flags().StringVar(&chartPath, "chart", "", "chart of accounts YAML file")
	accountsCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of accounts shown")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	if chartPath == "" {
		return errors.New("--chart is required")
	}
	chart, err := accounts.LoadChart(chartPath)
	if err != nil {
		return err
	}

	found, err := chart.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintln(out, "No accounts found.")
		return nil
	}
	for _, a := range found {
		fmt.Fprintf(out, "%-10s %s\n", a.Number, a.Name)
	}
	return nil
}
