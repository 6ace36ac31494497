package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/external/groq"
	"github.com/wonny/kairos/internal/external/listing"
	"github.com/wonny/kairos/internal/external/resolver"
	"github.com/wonny/kairos/internal/external/trends"
	"github.com/wonny/kairos/internal/external/wikipedia"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// socialCmd represents the social command
var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "편집 이력 + 검색 관심도 수집",
	Long: `종목 이름을 해석한 뒤 소셜 시계열을 수집합니다.

이 명령어는:
- 심볼 → 이름 해석 (캐시 → 1차 소스 → 디렉터리 폴백)
- 위키 문서 편집 이력 → {safe_name}_wikipedia_edits_{YYYYMMDD}.csv
- 검색 관심도 → {name_lower}_google_trends.csv

수집 실패는 해당 종목만 건너뛰며 명령 자체는 실패하지 않습니다.

Example:
  go run ./cmd/kairos social --symbols BTC,ETH
  go run ./cmd/kairos social --days 180`,
	RunE: runSocial,
}

var (
	socialSource  string
	socialSymbols []string
	socialOutput  string
	socialDays    int
)

func init() {
	rootCmd.AddCommand(socialCmd)

	// Flags
	socialCmd.Flags().StringVar(&socialSource, "source", "", "심볼 목록을 읽을 데이터셋 (기본: 설정값)")
	socialCmd.Flags().StringSliceVar(&socialSymbols, "symbols", nil, "수집할 심볼 목록 (기본: 데이터셋 전체)")
	socialCmd.Flags().StringVar(&socialOutput, "output", "", "결과 디렉터리 (기본: 설정값)")
	socialCmd.Flags().IntVar(&socialDays, "days", 90, "검색 관심도 조회 기간 (일)")
}

func runSocial(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Kairos Social Series ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Decide symbols: flag first, dataset otherwise
	symbols := socialSymbols
	if len(symbols) == 0 {
		source := resolveSource(cfg, socialSource)
		if source == "" {
			return fmt.Errorf("no symbols: set --symbols, or point --source/DATASET_PATH at a dataset")
		}

		httpClient := httputil.New(cfg, log)
		fetcher := dataset.NewFetcher(httpClient, cfg.Dataset.DataDir, log)
		table, err := fetcher.Load(cmd.Context(), source)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		symbols = table.UniqueSymbols()
	}

	// 4. Build the name resolver
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	var cache *redis.Cache
	var shared *redis.RateLimiter
	if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "kairos")
		shared = redis.NewRateLimiter(redisClient, "kairos")
	}

	// 서비스별 클라이언트: Redis가 켜져 있으면 프로세스 간 호출 예산 공유
	apiClient := func(rl redis.RateLimitConfig) *httputil.Client {
		c := httputil.New(cfg, log)
		if shared != nil {
			c = c.WithRateLimiter(shared, rl)
		}
		return c
	}

	var primary resolver.NameSource
	if gc := groq.NewClient(cfg.Groq, apiClient(redis.GroqRateLimit), log); gc.Enabled() {
		primary = gc
	}
	fallback := listing.NewClient(cfg.Listing, httputil.New(cfg, log), log)

	names := resolver.NewResolver(primary, fallback, cache, log)

	// 5. Build the series clients
	wikiClient := wikipedia.NewClient(cfg.Wikipedia, apiClient(redis.WikipediaRateLimit), log)
	trendsClient := trends.NewClient(cfg.Trends, apiClient(redis.TrendsRateLimit).WithLimiter(0.25, 1), log)

	outputDir := socialOutput
	if outputDir == "" {
		outputDir = cfg.Dataset.OutputDir
	}

	to := time.Now()
	from := to.AddDate(0, 0, -socialDays)

	// 6. Collect per symbol, failures skip the symbol only
	var collected int
	for _, symbol := range symbols {
		name, ok := names.Resolve(cmd.Context(), symbol)
		if !ok {
			PrintWarning(fmt.Sprintf("%s: name resolution failed, skipping", symbol))
			continue
		}

		fmt.Printf("\n🪙 %s (%s)\n", symbol, name)

		revs, err := wikiClient.FetchEditHistory(cmd.Context(), name)
		if err != nil {
			PrintWarning(fmt.Sprintf("%s: edit history failed: %v", symbol, err))
		} else {
			path, err := wikiClient.SaveCSV(outputDir, name, wikipedia.BucketDaily(revs))
			if err != nil {
				PrintWarning(fmt.Sprintf("%s: edit history save failed: %v", symbol, err))
			} else {
				PrintSuccess(fmt.Sprintf("edits → %s (%d revisions)", path, len(revs)))
			}
		}

		series, err := trendsClient.FetchInterestOverTime(cmd.Context(), name, from, to)
		if err != nil {
			PrintWarning(fmt.Sprintf("%s: search interest failed: %v", symbol, err))
		} else {
			path, err := trendsClient.SaveCSV(outputDir, series)
			if err != nil {
				PrintWarning(fmt.Sprintf("%s: search interest save failed: %v", symbol, err))
			} else {
				PrintSuccess(fmt.Sprintf("trends → %s (%d points)", path, len(series.Points)))
			}
		}

		collected++
	}

	fmt.Printf("\n✅ Processed %d of %d symbols\n", collected, len(symbols))
	return nil
}
