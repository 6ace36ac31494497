package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/export"
	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "데이터셋 수집 + 종목별 원시 CSV 내보내기",
	Long: `데이터셋을 확보하고 종목별 원시 OHLCV를 내보냅니다.

이 명령어는:
- 로컬 파일 또는 URL에서 데이터셋 로드 (URL은 data 디렉터리에 캐시)
- 스키마 검증 + 정렬 + 중복 날짜 제거
- 종목별 {symbol}_data.csv 저장
- DB_ENABLED=true면 원시 시세를 Postgres에 업서트

Example:
  go run ./cmd/kairos fetch
  go run ./cmd/kairos fetch --source https://example.com/crypto.csv
  go run ./cmd/kairos fetch --symbols BTC`,
	RunE: runFetch,
}

var (
	fetchSource  string
	fetchSymbols []string
	fetchOutput  string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "데이터셋 경로 또는 URL (기본: 설정값)")
	fetchCmd.Flags().StringSliceVar(&fetchSymbols, "symbols", nil, "내보낼 심볼 목록 (기본: 전체)")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "", "결과 디렉터리 (기본: 설정값)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Dataset Fetch ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load dataset
	source := resolveSource(cfg, fetchSource)
	if source == "" {
		return fmt.Errorf("no dataset source: set --source, DATASET_PATH or DATASET_URL")
	}

	httpClient := httputil.New(cfg, log)
	fetcher := dataset.NewFetcher(httpClient, cfg.Dataset.DataDir, log)
	table, err := fetcher.Load(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	table.SortBySymbolDate()
	if dropped := table.DeduplicateDates(); dropped > 0 {
		log.WithField("dropped", dropped).Warn("Dropped duplicate dates")
	}

	fmt.Printf("\n📄 Source  : %s\n", source)
	fmt.Printf("📊 Rows    : %d\n", table.Len())
	fmt.Printf("🪙 Symbols : %d\n\n", len(table.UniqueSymbols()))

	// 4. Export per-symbol raw CSVs
	want := make(map[string]bool, len(fetchSymbols))
	for _, s := range fetchSymbols {
		want[s] = true
	}

	outputDir := fetchOutput
	if outputDir == "" {
		outputDir = cfg.Dataset.OutputDir
	}
	writer := export.NewWriter(outputDir, log)

	var written int
	for _, g := range table.GroupBySymbol() {
		if len(want) > 0 && !want[g.Symbol] {
			continue
		}

		path, err := writer.WriteTable(export.RawName(g.Symbol), g.Table)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", g.Symbol, err))
			continue
		}
		PrintSuccess(fmt.Sprintf("%s → %s (%d rows)", g.Symbol, path, g.Table.Len()))
		written++
	}

	if written == 0 {
		return fmt.Errorf("no instruments exported")
	}

	// 5. Upsert raw bars (optional)
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := storage.EnsureSchema(cmd.Context(), db.Pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		bars := table.Bars()
		if err := storage.NewBarRepository(db.Pool).SaveBatch(cmd.Context(), bars); err != nil {
			return fmt.Errorf("save bars: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Upserted %d bars to feature store", len(bars)))
	}

	fmt.Printf("\n✅ Exported %d instruments\n", written)
	return nil
}
