package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/indicators"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/internal/targets"
	"github.com/wonny/kairos/pkg/logger"
)

// Persister materializes one enriched instrument table
type Persister interface {
	Persist(ctx context.Context, runID, symbol string, t *dataset.Table) error
}

// MultiPersister fans one table out to every persister in order.
// 첫 실패에서 중단: 뒤쪽 퍼시스터는 호출되지 않음
func MultiPersister(ps ...Persister) Persister {
	return multiPersister(ps)
}

type multiPersister []Persister

func (m multiPersister) Persist(ctx context.Context, runID, symbol string, t *dataset.Table) error {
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Persist(ctx, runID, symbol, t); err != nil {
			return err
		}
	}
	return nil
}

// InstrumentResult records the outcome for one instrument
type InstrumentResult struct {
	Symbol   string
	Stage    contracts.Stage
	Rows     int
	Skipped  bool
	Reason   string
	Err      error
	Table    *dataset.Table
	Duration time.Duration
}

// RunResult summarizes one batch run in memory, result tables included
type RunResult struct {
	RunID      string
	ConfigHash string
	StartedAt  time.Time
	Duration   time.Duration
	Succeeded  int
	Skipped    int
	Dropped    int // 중복 날짜로 버린 행
	Results    []InstrumentResult
}

// Record strips the in-memory tables down to the persistable run record
func (r *RunResult) Record() *contracts.RunRecord {
	rec := &contracts.RunRecord{
		ID:          r.RunID,
		ConfigHash:  r.ConfigHash,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.StartedAt.Add(r.Duration),
		Instruments: make([]contracts.InstrumentStatus, len(r.Results)),
	}
	for i, res := range r.Results {
		rec.Instruments[i] = contracts.InstrumentStatus{
			Symbol:    res.Symbol,
			Stage:     res.Stage,
			Succeeded: !res.Skipped,
			Rows:      res.Rows,
			Reason:    res.Reason,
			Duration:  res.Duration,
		}
	}
	return rec
}

// RunConfig selects what one batch run processes
type RunConfig struct {
	Workers int
	Symbols []string // 비어 있으면 테이블의 전 종목
}

// Runner drives each instrument through the pipeline stages.
// ⭐ SSOT: 스테이지 순서는 여기서만 정의됨
// Loaded → Indicators → Targets → Cleaned → Scaled → Persisted
type Runner struct {
	cfg     *pipelineconfig.Config
	policy  *Policy
	persist Persister
	sink    contracts.ProgressSink
	logger  *logger.Logger
}

// NewRunner creates a Runner. The persister and sink may be nil.
func NewRunner(cfg *pipelineconfig.Config, policy *Policy, persist Persister, sink contracts.ProgressSink, log *logger.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		policy:  policy,
		persist: persist,
		sink:    sink,
		logger:  log.WithField("module", "pipeline"),
	}
}

// Run processes every selected instrument group and returns the batch
// summary. The input table is not modified. 한 종목의 실패는 기록만
// 남기고 나머지 종목 처리는 계속됨.
func (r *Runner) Run(ctx context.Context, t *dataset.Table, rc RunConfig) (*RunResult, error) {
	// 원시 스키마는 배치 전체의 전제: 없으면 즉시 중단
	for _, col := range dataset.RequiredNumericColumns {
		if !t.HasColumn(col) {
			return nil, contracts.NewSchemaError(col)
		}
	}

	hash, err := pipelineconfig.Hash(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("config hash: %w", err)
	}
	run := &RunResult{
		RunID:      uuid.New().String(),
		ConfigHash: hash,
		StartedAt:  time.Now(),
	}

	work := t.Clone()
	work.SortBySymbolDate()
	run.Dropped = work.DeduplicateDates()

	groups, missing := selectGroups(work.GroupBySymbol(), rc.Symbols)
	workers := rc.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(groups) && len(groups) > 0 {
		workers = len(groups)
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id":      run.RunID,
		"instruments": len(groups),
		"workers":     workers,
		"dropped":     run.Dropped,
	}).Info("Starting pipeline run")

	jobs := make(chan dataset.Group, len(groups))
	resultCh := make(chan InstrumentResult, len(groups))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.worker(ctx, workerID, run.RunID, jobs, resultCh)
		}(i)
	}

	for _, g := range groups {
		jobs <- g
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 수집: 종목당 슬롯 하나, 입력 순서 유지
	slot := make(map[string]int, len(groups))
	run.Results = make([]InstrumentResult, len(groups))
	for i, g := range groups {
		slot[g.Symbol] = i
		run.Results[i] = InstrumentResult{Symbol: g.Symbol, Skipped: true, Reason: "cancelled"}
	}

	done := 0
	for res := range resultCh {
		run.Results[slot[res.Symbol]] = res
		done++
		if res.Skipped {
			run.Skipped++
		} else {
			run.Succeeded++
		}
		if r.sink != nil {
			r.sink.Publish(contracts.ProgressEvent{
				RunID:     run.RunID,
				Symbol:    res.Symbol,
				Stage:     res.Stage,
				Succeeded: !res.Skipped,
				Reason:    res.Reason,
				Done:      done,
				Total:     len(groups),
				Timestamp: time.Now(),
			})
		}
	}
	// 취소로 리포트되지 못한 슬롯 집계
	run.Skipped += len(groups) - done

	// 요청됐지만 데이터셋에 없는 종목도 결과에 남김
	for _, sym := range missing {
		run.Results = append(run.Results, InstrumentResult{
			Symbol: sym, Skipped: true, Reason: "not in dataset",
		})
		run.Skipped++
	}

	run.Duration = time.Since(run.StartedAt)
	r.logger.WithFields(map[string]interface{}{
		"run_id":    run.RunID,
		"succeeded": run.Succeeded,
		"skipped":   run.Skipped,
		"duration":  run.Duration.String(),
	}).Info("Pipeline run completed")

	return run, nil
}

func (r *Runner) worker(ctx context.Context, workerID int, runID string, jobs <-chan dataset.Group, out chan<- InstrumentResult) {
	for g := range jobs {
		select {
		case <-ctx.Done():
			out <- InstrumentResult{Symbol: g.Symbol, Skipped: true, Reason: "cancelled", Err: ctx.Err()}
			return
		default:
		}

		res := r.processOne(ctx, runID, g)
		if res.Err != nil {
			r.logger.WithError(res.Err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": g.Symbol,
				"stage":  string(res.Stage),
			}).Error("Instrument failed")
		} else {
			r.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": g.Symbol,
				"rows":   res.Rows,
			}).Debug("Instrument processed")
		}
		out <- res
	}
}

// processOne walks one instrument group through every stage
func (r *Runner) processOne(ctx context.Context, runID string, g dataset.Group) InstrumentResult {
	start := time.Now()
	res := InstrumentResult{Symbol: g.Symbol, Stage: contracts.StageLoaded}
	fail := func(reason string, err error) InstrumentResult {
		res.Skipped = true
		res.Reason = reason
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	tbl := g.Table

	// 무거운 계산 전에 원시 행수부터 거름
	if err := r.policy.VerifyMinimum(tbl, g.Symbol); err != nil {
		return fail(err.Error(), err)
	}

	if err := indicators.Enrich(tbl, r.cfg.Indicators); err != nil {
		return fail("indicator computation failed", err)
	}
	res.Stage = contracts.StageIndicators

	if err := targets.Label(tbl, r.cfg.Targets); err != nil {
		return fail("target generation failed", err)
	}
	res.Stage = contracts.StageTargets

	cleaned, _, err := r.policy.Clean(tbl)
	if err != nil {
		return fail("cleaning failed", err)
	}
	if err := r.policy.VerifyMinimum(cleaned, g.Symbol); err != nil {
		return fail(err.Error(), err)
	}
	res.Stage = contracts.StageCleaned

	if err := r.policy.Scale(cleaned); err != nil {
		return fail("scaling failed", err)
	}
	res.Stage = contracts.StageScaled

	if r.persist != nil {
		if err := r.persist.Persist(ctx, runID, g.Symbol, cleaned); err != nil {
			return fail("persist failed", err)
		}
		res.Stage = contracts.StagePersisted
	}

	res.Table = cleaned
	res.Rows = cleaned.Len()
	res.Duration = time.Since(start)
	return res
}

// selectGroups filters groups to the requested symbols, keeping input
// order, and reports requested symbols with no data
func selectGroups(groups []dataset.Group, symbols []string) ([]dataset.Group, []string) {
	if len(symbols) == 0 {
		return groups, nil
	}
	have := make(map[string]bool, len(groups))
	for _, g := range groups {
		have[g.Symbol] = true
	}

	want := make(map[string]bool, len(symbols))
	var missing []string
	for _, s := range symbols {
		want[s] = true
		if !have[s] {
			missing = append(missing, s)
		}
	}

	out := make([]dataset.Group, 0, len(symbols))
	for _, g := range groups {
		if want[g.Symbol] {
			out = append(out, g)
		}
	}
	return out, missing
}
