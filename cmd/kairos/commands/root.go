package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kairos",
	Short: "Kairos - 일봉 OHLCV 피처 파이프라인",
	Long: `Kairos Unified CLI

일봉 OHLCV 데이터셋을 모델 학습용 피처/타깃 테이블로 변환합니다.
수집 → 지표 → 타깃 → 정제 → 스케일 → 저장.

Usage:
  go run ./cmd/kairos [command]

Examples:
  go run ./cmd/kairos process
  go run ./cmd/kairos analyze --symbols BTC
  go run ./cmd/kairos api
  go run ./cmd/kairos scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "pipeline config file (default is configs/pipeline.yaml)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the app config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if configFile != "" {
		cfg.PipelineConfigPath = configFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
