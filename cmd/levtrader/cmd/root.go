package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "levtrader",
	Short: "A leveraged order-execution and capital-accounting engine",
	Long: `Levtrader executes leveraged trading orders under a hard capital ceiling,
tracks resulting positions, and reconciles profit/loss in real time.

It provides:
  - A capital ledger that can never double-reserve or leak funds
  - One independent execution monitor per in-flight order
  - A position ledger with weighted-average entry and realized/unrealized P&L
  - Volatility-driven dynamic leverage selection
  - Trade and capital journaling to CSV or SQLite

Complete documentation is available at https://github.com/rustyeddy/levtrader`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
