package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cockpit/internal/engine"
	"github.com/wonny/cockpit/internal/marketdata"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "포트폴리오 최적화 실행",
	Long: `주어진 종목들에 대해 제약 조건부 평균-분산 최적화를 실행합니다.

Objectives:
  max_sharpe      - 샤프 비율 최대화 (기본값)
  min_volatility  - 변동성 최소화
  efficient_risk  - 목표 변동성 하에서 수익률 최대화

Example:
  go run ./cmd/cockpit optimize --tickers AAPL.US,MSFT.US,GOOG.US --amount 10000
  go run ./cmd/cockpit optimize --tickers AAPL.US,MSFT.US --objective efficient_risk --target-vol 0.25`,
	RunE: runOptimize,
}

var (
	optTickers   []string
	optAmount    float64
	optObjective string
	optMaxWeight float64
	optTargetVol float64
	optStart     string
	optEnd       string
	optSeed      int64
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringSliceVar(&optTickers, "tickers", nil, "종목 리스트 (쉼표 구분, 최소 2개)")
	optimizeCmd.Flags().Float64Var(&optAmount, "amount", 10_000, "투자 금액 (USD)")
	optimizeCmd.Flags().StringVar(&optObjective, "objective", "max_sharpe", "최적화 목표")
	optimizeCmd.Flags().Float64Var(&optMaxWeight, "max-weight", 1.0, "종목별 최대 비중 (0, 1]")
	optimizeCmd.Flags().Float64Var(&optTargetVol, "target-vol", 0, "목표 변동성 (efficient_risk 전용)")
	optimizeCmd.Flags().StringVar(&optStart, "start", "", "시작일 (YYYY-MM-DD, 기본값: 3년 전)")
	optimizeCmd.Flags().StringVar(&optEnd, "end", "", "종료일 (YYYY-MM-DD, 기본값: 오늘)")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 0, "Monte Carlo 시드")
	optimizeCmd.MarkFlagRequired("tickers")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	// 1. Build components
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	objective := engine.Objective(optObjective)
	if !objective.Valid() {
		return fmt.Errorf("unknown objective %q", optObjective)
	}

	rng, err := cliDateRange(optStart, optEnd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// 2. Assemble the price matrix
	prices, err := app.market.GetPriceMatrix(ctx, optTickers, rng)
	if err != nil {
		return fmt.Errorf("load price data: %w", err)
	}

	// 3. Run the engine
	start := time.Now()
	result, err := app.engine.Optimize(ctx, engine.OptimizeRequest{
		Prices:           prices,
		Objective:        objective,
		Constraints:      engine.Constraints{MaxWeight: optMaxWeight},
		TargetVolatility: optTargetVol,
		Capital:          optAmount,
		SampleCount:      -1,
		Seed:             optSeed,
	})
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	// 4. Print the report
	fmt.Printf("=== Portfolio Optimization (%s) ===\n\n", objective)
	fmt.Printf("Window:       %s ~ %s (%d observations)\n",
		rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02"), prices.NumObservations())
	fmt.Printf("Shrinkage δ:  %.4f\n\n", result.ShrinkageIntensity)

	tickers := append([]string(nil), prices.Tickers...)
	sort.Slice(tickers, func(i, j int) bool {
		return result.Weights[tickers[i]] > result.Weights[tickers[j]]
	})

	fmt.Println("Weights:")
	for _, ticker := range tickers {
		w := result.Weights[ticker]
		if w == 0 {
			continue
		}
		fmt.Printf("  %-10s %6.2f%%   $%.2f\n", ticker, w*100, result.Allocations[ticker])
	}

	fmt.Printf("\nExpected return:  %7.2f%%\n", result.Performance.ExpectedReturn*100)
	fmt.Printf("Volatility:       %7.2f%%\n", result.Performance.Volatility*100)
	fmt.Printf("Sharpe ratio:     %7.3f\n", result.Performance.SharpeRatio)

	if result.Risk != nil {
		fmt.Println("\nRisk (historical):")
		for _, v := range result.Risk.VaR {
			fmt.Printf("  VaR %.0f%%:   $%.2f (CVaR $%.2f)\n", v.Confidence*100, v.Loss, v.CVaR)
		}
		fmt.Printf("  Max drawdown:  %.2f%% over %d trading days\n",
			result.Risk.MaxDrawdown*100, result.Risk.DrawdownDuration)
	}

	fmt.Printf("\n✅ Completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// cliDateRange parses the --start/--end flags with the trailing-3y default
func cliDateRange(startFlag, endFlag string) (marketdata.DateRange, error) {
	var zero marketdata.DateRange

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if endFlag != "" {
		parsed, err := time.Parse("2006-01-02", endFlag)
		if err != nil {
			return zero, fmt.Errorf("invalid --end %q", endFlag)
		}
		to = parsed
	}

	from := to.AddDate(-3, 0, 0)
	if startFlag != "" {
		parsed, err := time.Parse("2006-01-02", startFlag)
		if err != nil {
			return zero, fmt.Errorf("invalid --start %q", startFlag)
		}
		from = parsed
	}

	rng := marketdata.DateRange{From: from, To: to}
	if err := rng.Validate(); err != nil {
		return zero, err
	}
	return rng, nil
}
