package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [run_id]",
	Short: "런 실행 이력 조회",
	Long: `피처 스토어에 기록된 파이프라인 런을 조회합니다.

run_id 없이 실행하면 최근 런 목록을, run_id를 주면 종목별
상세 결과를 보여줍니다. DB_ENABLED=true가 필요합니다.

Example:
  go run ./cmd/kairos status
  go run ./cmd/kairos status --limit 5
  go run ./cmd/kairos status --watch
  go run ./cmd/kairos status 4f1c0c8e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var (
	statusLimit   int
	statusWatch   bool
	statusRefresh time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "조회할 런 수")
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "주기적으로 갱신")
	statusCmd.Flags().DurationVar(&statusRefresh, "refresh", 5*time.Second, "갱신 간격 (--watch)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Connect to the feature store
	if !cfg.Database.Enabled {
		return fmt.Errorf("feature store disabled: run history needs DB_ENABLED=true")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := storage.NewRunRepository(db.Pool)

	// 4. Detail view for a single run
	if len(args) == 1 {
		return showRunDetail(cmd.Context(), repo, args[0])
	}

	// 5. List view, once or watched
	if !statusWatch {
		return displayRecentRuns(cmd.Context(), repo)
	}

	fmt.Printf("Refresh: %v | Press Ctrl+C to stop\n\n", statusRefresh)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	if err := displayRecentRuns(cmd.Context(), repo); err != nil {
		return err
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\n✅ Status monitor stopped")
			return nil

		case <-ticker.C:
			// Clear screen (ANSI escape code)
			fmt.Print("\033[H\033[2J")
			fmt.Printf("Refresh: %v | Last update: %s\n\n", statusRefresh, time.Now().Format("15:04:05"))

			if err := displayRecentRuns(cmd.Context(), repo); err != nil {
				return err
			}
		}
	}
}

func displayRecentRuns(ctx context.Context, repo *storage.RunRepository) error {
	runs, err := repo.RecentRuns(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	fmt.Println("📊 Recent Pipeline Runs")
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("  (no runs recorded yet)")
		return nil
	}

	widths := []int{10, 17, 9, 4, 5, 12}
	PrintTableHeader([]string{"RUN", "STARTED", "DURATION", "OK", "SKIP", "CONFIG"}, widths)
	for _, rec := range runs {
		PrintTableRow([]string{
			shortID(rec.ID),
			rec.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2fs", rec.Duration().Seconds()),
			fmt.Sprintf("%d", rec.SucceededCount()),
			fmt.Sprintf("%d", rec.SkippedCount()),
			shortHash(rec.ConfigHash),
		}, widths)
	}

	return nil
}

func showRunDetail(ctx context.Context, repo *storage.RunRepository, id string) error {
	rec, err := repo.GetRun(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	fmt.Println("📊 Run Detail")
	fmt.Println()
	PrintKeyValue("Run ID", rec.ID, 9)
	PrintKeyValue("Config", shortHash(rec.ConfigHash), 9)
	PrintKeyValue("Started", rec.StartedAt.Format("2006-01-02 15:04:05"), 9)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", rec.Duration().Seconds()), 9)
	PrintKeyValue("Result", fmt.Sprintf("%d ok / %d skipped", rec.SucceededCount(), rec.SkippedCount()), 9)
	fmt.Println()

	widths := []int{10, 12, 6, 6, 30}
	PrintTableHeader([]string{"SYMBOL", "STAGE", "ROWS", "OK", "REASON"}, widths)
	for _, inst := range rec.Instruments {
		ok := "yes"
		if !inst.Succeeded {
			ok = "no"
		}
		PrintTableRow([]string{
			inst.Symbol,
			string(inst.Stage),
			fmt.Sprintf("%d", inst.Rows),
			ok,
			inst.Reason,
		}, widths)
	}

	return nil
}

// shortID trims a run ID for table display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
