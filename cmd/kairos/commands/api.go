package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/api"
	"github.com/wonny/kairos/internal/api/handlers"
	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 런/심볼/피처 조회 엔드포인트 제공
- 진행 상황 웹소켓 스트림 제공

Endpoints:
  GET  /health                            - Health check
  GET  /api/v1/runs                       - 최근 런 목록
  GET  /api/v1/runs/{id}                  - 런 상세
  GET  /api/v1/symbols                    - 심볼 목록
  GET  /api/v1/symbols/{symbol}/features  - 최근 피처 행
  GET  /api/v1/config                     - 파이프라인 설정
  GET  /ws/progress                       - 진행 이벤트 스트림

Example:
  go run ./cmd/kairos api
  go run ./cmd/kairos api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: 설정값)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Load pipeline config
	pcfg, _, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfigPath)
	if err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}
	hash, err := pipelineconfig.Hash(pcfg)
	if err != nil {
		return fmt.Errorf("config hash: %w", err)
	}

	// 4. Connect to the feature store (optional)
	var db *database.DB
	var barRepo contracts.BarRepository
	var featureRepo contracts.FeatureRepository
	var runRepo contracts.RunRepository

	if cfg.Database.Enabled {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := storage.EnsureSchema(cmd.Context(), db.Pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		barRepo = storage.NewBarRepository(db.Pool)
		featureRepo = storage.NewFeatureRepository(db.Pool)
		runRepo = storage.NewRunRepository(db.Pool)

		log.Info("Connected to database")
	} else {
		log.Warn("Feature store disabled, data endpoints will return 503")
	}

	// 5. Create handlers
	healthHandler := handlers.NewHealthHandler(db, log)
	runHandler := handlers.NewRunHandler(runRepo, log)
	symbolHandler := handlers.NewSymbolHandler(barRepo, featureRepo, log)
	configHandler := handlers.NewConfigHandler(pcfg, hash, log)

	// 6. Create progress hub
	hub := api.NewProgressHub(log)

	// 7. Create router + server
	router := api.NewRouter(healthHandler, runHandler, symbolHandler, configHandler, hub, log)
	server := api.New(cfg, log, router)

	// 8. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/v1/runs")
	fmt.Println("  GET  /api/v1/runs/{id}")
	fmt.Println("  GET  /api/v1/symbols")
	fmt.Println("  GET  /api/v1/symbols/{symbol}/features")
	fmt.Println("  GET  /api/v1/config")
	fmt.Println("  GET  /ws/progress")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
