package commands

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/export"
	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "전체 파이프라인 실행",
	Long: `데이터셋을 읽어 전체 파이프라인을 실행합니다.

각 단계:
- Load: 원시 OHLCV 로드 (로컬 파일 또는 URL)
- Indicators: 기술 지표 계산
- Targets: 예측 타깃 생성
- Clean: 결측 보간 + 최소 행수 검증
- Scale: 종목별 min-max 스케일
- Persist: {symbol}_processed.csv + (선택) 피처 스토어

종목 하나의 실패는 해당 종목만 건너뜁니다.

Example:
  go run ./cmd/kairos process
  go run ./cmd/kairos process --source data/crypto.csv
  go run ./cmd/kairos process --symbols BTC,ETH --workers 2`,
	RunE: runProcess,
}

var (
	processSource  string
	processSymbols []string
	processWorkers int
	processOutput  string
)

func init() {
	rootCmd.AddCommand(processCmd)

	// Flags
	processCmd.Flags().StringVar(&processSource, "source", "", "데이터셋 경로 또는 URL (기본: 설정값)")
	processCmd.Flags().StringSliceVar(&processSymbols, "symbols", nil, "처리할 심볼 목록 (기본: 전체)")
	processCmd.Flags().IntVar(&processWorkers, "workers", 4, "동시 처리 워커 수")
	processCmd.Flags().StringVar(&processOutput, "output", "", "결과 디렉터리 (기본: 설정값)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Pipeline ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load pipeline config
	pcfg, _, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfigPath)
	if err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}
	hash, err := pipelineconfig.Hash(pcfg)
	if err != nil {
		return fmt.Errorf("config hash: %w", err)
	}

	// 4. Resolve dataset source
	source := resolveSource(cfg, processSource)
	if source == "" {
		return fmt.Errorf("no dataset source: set --source, DATASET_PATH or DATASET_URL")
	}

	outputDir := processOutput
	if outputDir == "" {
		outputDir = cfg.Dataset.OutputDir
	}

	fmt.Printf("\n📄 Source : %s\n", source)
	fmt.Printf("📁 Output : %s\n", outputDir)
	fmt.Printf("🔧 Config : %s (%s)\n\n", cfg.PipelineConfigPath, shortHash(hash))

	// 5. Load dataset
	httpClient := httputil.New(cfg, log)
	fetcher := dataset.NewFetcher(httpClient, cfg.Dataset.DataDir, log)
	table, err := fetcher.Load(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	// 6. Build persisters (CSV always, feature store when enabled)
	writer := export.NewWriter(outputDir, log)
	persisters := []pipeline.Persister{writer}

	var runRepo contracts.RunRepository
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := storage.EnsureSchema(cmd.Context(), db.Pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		persisters = append(persisters, storage.NewPersister(storage.NewFeatureRepository(db.Pool)))
		runRepo = storage.NewRunRepository(db.Pool)

		log.Info("Feature store enabled")
	}

	// 7. Create runner
	sink := &progressSink{}
	runner := pipeline.NewRunner(pcfg, pipeline.NewPolicy(pcfg, log), pipeline.MultiPersister(persisters...), sink, log)

	// 8. Execute pipeline
	result, err := runner.Run(cmd.Context(), table, pipeline.RunConfig{
		Workers: processWorkers,
		Symbols: processSymbols,
	})
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	// 9. Record the run
	if runRepo != nil {
		if err := runRepo.SaveRun(cmd.Context(), result.Record()); err != nil {
			log.WithError(err).Warn("Failed to save run record")
		}
	}
	if _, err := writer.WriteRunSummary(result); err != nil {
		log.WithError(err).Warn("Failed to write run summary")
	}

	// 10. Print results
	printRunSummary(result)

	return nil
}

// resolveSource picks the dataset source: flag, then local path, then URL
func resolveSource(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Dataset.Path != "" {
		return cfg.Dataset.Path
	}
	return cfg.Dataset.URL
}

func printRunSummary(result *pipeline.RunResult) {
	fmt.Println("\n✅ Pipeline Run Completed")
	fmt.Println()

	PrintKeyValue("Run ID", result.RunID, 9)
	PrintKeyValue("Config", shortHash(result.ConfigHash), 9)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 9)
	PrintKeyValue("Succeeded", fmt.Sprintf("%d", result.Succeeded), 9)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", result.Skipped), 9)
	if result.Dropped > 0 {
		PrintKeyValue("Dropped", fmt.Sprintf("%d duplicate rows", result.Dropped), 9)
	}
	fmt.Println()

	widths := []int{10, 12, 6, 40}
	PrintTableHeader([]string{"SYMBOL", "STAGE", "ROWS", "NOTE"}, widths)
	for _, res := range result.Results {
		note := res.Reason
		if res.Err != nil {
			note = res.Err.Error()
		}
		PrintTableRow([]string{
			res.Symbol,
			string(res.Stage),
			fmt.Sprintf("%d", res.Rows),
			note,
		}, widths)
	}
}

// progressSink renders pipeline completion events as a terminal bar
type progressSink struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (s *progressSink) Publish(event contracts.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		s.bar = progressbar.Default(int64(event.Total))
	}
	s.bar.Describe(fmt.Sprintf("Processed %s", event.Symbol))
	s.bar.Add(1)
}
