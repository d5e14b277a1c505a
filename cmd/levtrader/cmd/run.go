package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/levtrader/config"
	"github.com/rustyeddy/levtrader/executor"
	"github.com/rustyeddy/levtrader/gateway/sim"
	"github.com/rustyeddy/levtrader/journal"
	"github.com/rustyeddy/levtrader/ledger"
	"github.com/rustyeddy/levtrader/leverage"
	"github.com/rustyeddy/levtrader/market"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo trade against the scripted venue",
	Long: `Run one leveraged trade against the in-memory venue using settings from a
configuration file.

The config's demo section sets the symbol, initial price, fee rate, trade
capital and the price steps to replay after the fill.

Example:
  levtrader run --config examples/demo.yaml --side buy`,
	RunE: runRun,
}

var (
	runConfigPath string
	runSide       string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVar(&runSide, "side", "buy", "order side: buy or sell")
}

func parseSide(s string) (market.Side, error) {
	switch strings.ToLower(s) {
	case "buy", "long":
		return market.Buy, nil
	case "sell", "short":
		return market.Sell, nil
	}
	return market.Buy, fmt.Errorf("unknown side %q", s)
}

func buildJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.CapitalFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	side, err := parseSide(runSide)
	if err != nil {
		return err
	}

	pollEvery, _ := cfg.Monitor.ParsePollInterval()
	refreshEvery, _ := cfg.Monitor.ParseRefreshInterval()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	venue := sim.NewVenue(decimal.NewFromFloat(cfg.Demo.FeeRate))
	venue.SetPrice(cfg.Demo.Symbol, decimal.NewFromFloat(cfg.Demo.InitialPrice))
	venue.SetDailyChange(cfg.Demo.Symbol, decimal.NewFromFloat(cfg.Demo.DailyChange))

	led, err := ledger.New(decimal.NewFromFloat(cfg.Account.Capital))
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}

	jrnl, err := buildJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer jrnl.Close()

	policy := leverage.Policy{
		Base:        cfg.Leverage.Base,
		DefaultBase: cfg.Leverage.DefaultBase,
		Min:         cfg.Leverage.Min,
		Max:         cfg.Leverage.Max,
		HighVol:     decimal.NewFromFloat(cfg.Leverage.HighVol),
		LowVol:      decimal.NewFromFloat(cfg.Leverage.LowVol),
	}

	exec := executor.New(venue, venue, led, policy, executor.Config{
		PollInterval:    pollEvery,
		MaxPollAttempts: cfg.Monitor.MaxAttempts,
		RefreshInterval: refreshEvery,
	}, jrnl, logger)
	defer exec.Close()

	fmt.Printf("Account %s: %.2f %s, symbol %s @ %.2f\n\n",
		cfg.Account.ID, cfg.Account.Capital, cfg.Account.Currency,
		cfg.Demo.Symbol, cfg.Demo.InitialPrice)

	ctx := context.Background()
	tradeID, err := exec.ExecuteTrade(ctx, cfg.Demo.Symbol, side,
		decimal.NewFromFloat(cfg.Demo.TradeCapital), market.Market, decimal.Zero)
	if err != nil {
		return fmt.Errorf("execute trade: %w", err)
	}
	fmt.Printf("Trade placed: %s\n", tradeID)

	// The sim venue fills market orders immediately; wait for the monitor's
	// next poll to settle the trade.
	deadline := time.Now().Add(time.Duration(cfg.Monitor.MaxAttempts) * pollEvery)
	for len(exec.ActiveTrades()) > 0 && time.Now().Before(deadline) {
		time.Sleep(pollEvery / 2)
	}

	for i, step := range cfg.Demo.PriceSteps {
		delay, err := step.ParseDuration()
		if err != nil {
			return fmt.Errorf("invalid delay in step %d: %w", i, err)
		}
		time.Sleep(delay)
		fmt.Printf("Price -> %.2f\n", step.Price)
		venue.SetPrice(cfg.Demo.Symbol, decimal.NewFromFloat(step.Price))
	}

	s := exec.TradingStats()
	bal := exec.Capital()

	fmt.Printf("\nResults:\n")
	fmt.Printf("  Trades: %d (won %d, failed %d), win rate %.1f%%\n",
		s.TotalTrades, s.SuccessfulTrades, s.FailedTrades, s.WinRate*100)
	fmt.Printf("  Realized P&L: %s, fees: %s\n", s.TotalRealizedPnL, s.TotalFees)
	fmt.Printf("  Capital: total %s, available %s, reserved %s\n",
		bal.Total, bal.Available, bal.Reserved)

	for symbol, p := range exec.Positions() {
		fmt.Printf("  Position %s: size %s @ %s (unrealized %s)\n",
			symbol, p.Size, p.AvgEntryPrice, p.UnrealizedPnL)
	}

	return nil
}
