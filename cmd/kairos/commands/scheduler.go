package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/export"
	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/internal/scheduler"
	"github.com/wonny/kairos/internal/scheduler/jobs"
	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작
- 등록된 작업 조회
- 작업 즉시 실행

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/kairos scheduler start
  go run ./cmd/kairos scheduler list
  go run ./cmd/kairos scheduler run dataset_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- dataset_refresh: 매일 00:10 UTC (데이터셋 갱신 + 파이프라인 실행)
- run_retention: 매주 일요일 00:30 UTC (오래된 런 기록 정리, DB 필요)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Scheduler ===")

	// Initialize dependencies
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	// Print what ran while we were up
	for jobName, stat := range sched.GetJobStats() {
		if stat.TotalRuns == 0 {
			continue
		}
		fmt.Printf("  %s: %d runs, %.0f%% success\n", jobName, stat.TotalRuns, stat.SuccessRate*100)
	}
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob은 백그라운드 고루틴으로 실행됨: 히스토리에 결과가 남을 때까지 대기
	fmt.Println("Job started, waiting for completion (Ctrl+C to abort)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return fmt.Errorf("aborted while job %s was still running", jobName)

		case <-ticker.C:
			stat, ok := sched.GetJobStats()[jobName]
			if !ok || stat.TotalRuns == 0 {
				continue
			}
			if stat.FailureCount > 0 {
				return fmt.Errorf("job %s failed after retries", jobName)
			}
			PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
			return nil
		}
	}
}

func initScheduler(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	cleanup := func() {}

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, cleanup, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load pipeline config
	pcfg, _, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfigPath)
	if err != nil {
		return nil, cleanup, fmt.Errorf("load pipeline config: %w", err)
	}

	// 4. Resolve dataset source
	source := resolveSource(cfg, "")
	if source == "" {
		return nil, cleanup, fmt.Errorf("no dataset source: set DATASET_PATH or DATASET_URL")
	}

	// 5. Build the pipeline pieces
	httpClient := httputil.New(cfg, log)
	fetcher := dataset.NewFetcher(httpClient, cfg.Dataset.DataDir, log)

	writer := export.NewWriter(cfg.Dataset.OutputDir, log)
	persisters := []pipeline.Persister{writer}

	var barRepo contracts.BarRepository
	var runRepo contracts.RunRepository
	var storageRunRepo *storage.RunRepository

	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to database: %w", err)
		}
		cleanup = func() { db.Close() }

		if err := storage.EnsureSchema(cmd.Context(), db.Pool); err != nil {
			db.Close()
			return nil, func() {}, fmt.Errorf("ensure schema: %w", err)
		}

		barRepo = storage.NewBarRepository(db.Pool)
		storageRunRepo = storage.NewRunRepository(db.Pool)
		runRepo = storageRunRepo
		persisters = append(persisters, storage.NewPersister(storage.NewFeatureRepository(db.Pool)))
	}

	runner := pipeline.NewRunner(pcfg, pipeline.NewPolicy(pcfg, log), pipeline.MultiPersister(persisters...), nil, log)

	// 6. Create scheduler + register jobs
	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewDatasetRefreshJob(fetcher, runner, barRepo, runRepo, source, 4, log)); err != nil {
		return nil, cleanup, err
	}
	if storageRunRepo != nil {
		if err := sched.AddJob(jobs.NewRunRetentionJob(storageRunRepo, 0, log)); err != nil {
			return nil, cleanup, err
		}
	}

	return sched, cleanup, nil
}
