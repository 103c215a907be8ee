package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	syntheticOnly bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cockpit",
	Short: "Cockpit - 포트폴리오 최적화 엔진",
	Long: `Cockpit portfolio analysis CLI

CAPM 기대수익률 + Ledoit-Wolf 공분산 + 제약 QP 기반
평균-분산 포트폴리오 최적화 엔진.

Usage:
  go run ./cmd/cockpit [command]

Examples:
  go run ./cmd/cockpit api
  go run ./cmd/cockpit optimize --tickers AAPL.US,MSFT.US,GOOG.US --amount 10000
  go run ./cmd/cockpit frontier --tickers AAPL.US,MSFT.US --samples 5000`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&syntheticOnly, "synthetic", false, "skip network, use deterministic synthetic prices")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
