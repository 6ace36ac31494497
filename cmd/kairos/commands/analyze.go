package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/export"
	"github.com/wonny/kairos/internal/indicators"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "기술 지표만 계산",
	Long: `타깃/정제/스케일 없이 기술 지표 단계만 실행합니다.

결과는 종목별 {symbol}_with_indicators.csv로 저장됩니다.
원본 값이 그대로 남아 있어 지표 검증과 차트 작업에 적합합니다.

Example:
  go run ./cmd/kairos analyze
  go run ./cmd/kairos analyze --symbols BTC,ETH
  go run ./cmd/kairos analyze --source data/crypto.csv`,
	RunE: runAnalyze,
}

var (
	analyzeSource  string
	analyzeSymbols []string
	analyzeOutput  string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "데이터셋 경로 또는 URL (기본: 설정값)")
	analyzeCmd.Flags().StringSliceVar(&analyzeSymbols, "symbols", nil, "분석할 심볼 목록 (기본: 전체)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "결과 디렉터리 (기본: 설정값)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Indicator Analysis ===")

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

	// 4. Load dataset
	source := resolveSource(cfg, analyzeSource)
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

	// 5. Select instruments
	want := make(map[string]bool, len(analyzeSymbols))
	for _, s := range analyzeSymbols {
		want[s] = true
	}

	outputDir := analyzeOutput
	if outputDir == "" {
		outputDir = cfg.Dataset.OutputDir
	}
	writer := export.NewWriter(outputDir, log)

	// 6. Enrich and write per instrument
	var written int
	for _, g := range table.GroupBySymbol() {
		if len(want) > 0 && !want[g.Symbol] {
			continue
		}

		if err := indicators.Enrich(g.Table, pcfg.Indicators); err != nil {
			PrintError(fmt.Sprintf("%s: %v", g.Symbol, err))
			continue
		}

		path, err := writer.WriteTable(export.IndicatorsName(g.Symbol), g.Table)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", g.Symbol, err))
			continue
		}

		PrintSuccess(fmt.Sprintf("%s → %s (%d rows)", g.Symbol, path, g.Table.Len()))
		written++
	}

	if written == 0 {
		return fmt.Errorf("no instruments analyzed")
	}

	fmt.Printf("\n✅ Analyzed %d instruments\n", written)
	return nil
}
