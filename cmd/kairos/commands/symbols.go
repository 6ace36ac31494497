package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// symbolsCmd represents the symbols command
var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "심볼 목록 조회",
	Long: `데이터셋에 들어 있는 심볼과 기간을 보여줍니다.

--store를 주면 데이터셋 대신 피처 스토어의 심볼을 조회합니다
(DB_ENABLED=true 필요).

Example:
  go run ./cmd/kairos symbols
  go run ./cmd/kairos symbols --source data/crypto.csv
  go run ./cmd/kairos symbols --store`,
	RunE: runSymbols,
}

var (
	symbolsSource    string
	symbolsFromStore bool
)

func init() {
	rootCmd.AddCommand(symbolsCmd)

	// Flags
	symbolsCmd.Flags().StringVar(&symbolsSource, "source", "", "데이터셋 경로 또는 URL (기본: 설정값)")
	symbolsCmd.Flags().BoolVar(&symbolsFromStore, "store", false, "피처 스토어에서 조회")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	if symbolsFromStore {
		return listStoreSymbols(cmd, cfg, log)
	}

	// 3. Load dataset
	source := resolveSource(cfg, symbolsSource)
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
	table.DeduplicateDates()

	// 4. Print per-symbol coverage
	groups := table.GroupBySymbol()

	fmt.Printf("=== Symbols (%s) ===\n\n", source)
	widths := []int{10, 8, 12, 12}
	PrintTableHeader([]string{"SYMBOL", "ROWS", "FROM", "TO"}, widths)
	for _, g := range groups {
		n := g.Table.Len()
		PrintTableRow([]string{
			g.Symbol,
			fmt.Sprintf("%d", n),
			g.Table.DateAt(0).Format("2006-01-02"),
			g.Table.DateAt(n - 1).Format("2006-01-02"),
		}, widths)
	}

	fmt.Printf("\n✅ %d symbols, %d rows\n", len(groups), table.Len())
	return nil
}

func listStoreSymbols(cmd *cobra.Command, cfg *config.Config, log *logger.Logger) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("feature store disabled: set DB_ENABLED=true")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	symbols, err := storage.NewBarRepository(db.Pool).Symbols(cmd.Context())
	if err != nil {
		return fmt.Errorf("list symbols: %w", err)
	}

	fmt.Println("=== Symbols (feature store) ===")
	fmt.Println()
	for _, sym := range symbols {
		fmt.Printf("  - %s\n", sym)
	}
	fmt.Printf("\n✅ %d symbols\n", len(symbols))
	return nil
}
