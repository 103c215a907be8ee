package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/cockpit/internal/engine"
)

// frontierCmd represents the frontier command
var frontierCmd = &cobra.Command{
	Use:   "frontier",
	Short: "효율적 프론티어 시뮬레이션",
	Long: `Monte Carlo 샘플링으로 효율적 프론티어 주변의 실현 가능 영역을 탐색합니다.

Example:
  go run ./cmd/cockpit frontier --tickers AAPL.US,MSFT.US,GOOG.US --samples 5000`,
	RunE: runFrontier,
}

var (
	frontTickers   []string
	frontMaxWeight float64
	frontSamples   int
	frontSeed      int64
	frontStart     string
	frontEnd       string
)

func init() {
	rootCmd.AddCommand(frontierCmd)

	frontierCmd.Flags().StringSliceVar(&frontTickers, "tickers", nil, "종목 리스트 (쉼표 구분, 최소 2개)")
	frontierCmd.Flags().Float64Var(&frontMaxWeight, "max-weight", 1.0, "종목별 최대 비중 (0, 1]")
	frontierCmd.Flags().IntVar(&frontSamples, "samples", 0, "샘플 수 (기본값: 환경변수 SAMPLE_COUNT)")
	frontierCmd.Flags().Int64Var(&frontSeed, "seed", 0, "난수 시드")
	frontierCmd.Flags().StringVar(&frontStart, "start", "", "시작일 (YYYY-MM-DD)")
	frontierCmd.Flags().StringVar(&frontEnd, "end", "", "종료일 (YYYY-MM-DD)")
	frontierCmd.MarkFlagRequired("tickers")
}

func runFrontier(cmd *cobra.Command, args []string) error {
	// 1. Build components
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	rng, err := cliDateRange(frontStart, frontEnd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// 2. Assemble the price matrix
	prices, err := app.market.GetPriceMatrix(ctx, frontTickers, rng)
	if err != nil {
		return fmt.Errorf("load price data: %w", err)
	}

	// 3. Simulate
	result, err := app.engine.Frontier(ctx, prices, engine.Constraints{MaxWeight: frontMaxWeight},
		frontSamples, frontSeed)
	if err != nil {
		return fmt.Errorf("frontier simulation failed: %w", err)
	}

	// 4. Summarize the scatter
	minVol, maxVol := result.Samples[0].Volatility, result.Samples[0].Volatility
	minRet, maxRet := result.Samples[0].Return, result.Samples[0].Return
	for _, s := range result.Samples {
		if s.Volatility < minVol {
			minVol = s.Volatility
		}
		if s.Volatility > maxVol {
			maxVol = s.Volatility
		}
		if s.Return < minRet {
			minRet = s.Return
		}
		if s.Return > maxRet {
			maxRet = s.Return
		}
	}

	fmt.Printf("=== Efficient Frontier (%d samples) ===\n\n", len(result.Samples))
	fmt.Printf("Scatter:      vol %.2f%% ~ %.2f%%, return %.2f%% ~ %.2f%%\n",
		minVol*100, maxVol*100, minRet*100, maxRet*100)
	fmt.Printf("Min vol:      return %.2f%%, vol %.2f%%, sharpe %.3f\n",
		result.MinVolatility.ExpectedReturn*100, result.MinVolatility.Volatility*100, result.MinVolatility.SharpeRatio)
	fmt.Printf("Max sharpe:   return %.2f%%, vol %.2f%%, sharpe %.3f\n",
		result.MaxSharpe.ExpectedReturn*100, result.MaxSharpe.Volatility*100, result.MaxSharpe.SharpeRatio)
	return nil
}
