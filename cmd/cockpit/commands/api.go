package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cockpit/internal/api"
	"github.com/wonny/cockpit/internal/api/handlers"
	"github.com/wonny/cockpit/internal/scheduler"
	"github.com/wonny/cockpit/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                   - Health check
  POST /api/portfolio/optimize   - 포트폴리오 최적화
  POST /api/portfolio/frontier   - 효율적 프론티어 시뮬레이션
  GET  /api/stocks/historical    - 일봉 조회
  GET  /api/stocks/info          - 종목 프로필 조회

Example:
  go run ./cmd/cockpit api
  go run ./cmd/cockpit api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: 환경변수 PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Cockpit API Server ===")

	// 1. Build components
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}
	log := app.logger

	// 2. Create handlers and router
	portfolioHandler := handlers.NewPortfolioHandler(app.market, app.engine, log)
	stocksHandler := handlers.NewStocksHandler(app.market, log)
	router := api.NewRouter(portfolioHandler, stocksHandler, log)

	// 3. Create server
	server := api.New(app.cfg, log, router)

	// 4. Start the nightly refresh when the price cache is on
	var sched *scheduler.Scheduler
	if app.repo != nil && !app.cfg.Provider.SyntheticOnly {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewPriceRefreshJob(app.market, app.repo, log)); err != nil {
			return fmt.Errorf("register refresh job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// 6. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
