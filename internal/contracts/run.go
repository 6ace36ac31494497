package contracts

import (
	"fmt"
	"time"
)

// InstrumentStatus records the outcome of one instrument in a batch run
// ⭐ SSOT: 인스트루먼트별 처리 결과는 이 타입으로만 보고
type InstrumentStatus struct {
	Symbol    string        `json:"symbol"`
	Stage     Stage         `json:"stage"` // last stage reached
	Succeeded bool          `json:"succeeded"`
	Rows      int           `json:"rows"` // rows in the final artifact
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Skipped reports whether the instrument was skipped before completion
func (s *InstrumentStatus) Skipped() bool {
	return !s.Succeeded
}

// Summary returns a one-line human description
func (s *InstrumentStatus) Summary() string {
	if s.Succeeded {
		return fmt.Sprintf("%s: ok (%d rows, %s)", s.Symbol, s.Rows, s.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: skipped at %s (%s)", s.Symbol, s.Stage, s.Reason)
}

// RunRecord aggregates the outcome of one batch run
type RunRecord struct {
	ID          string             `json:"id"`
	ConfigHash  string             `json:"config_hash"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Instruments []InstrumentStatus `json:"instruments"`
}

// Duration returns the wall-clock duration of the run
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SucceededCount returns the number of instruments that completed
func (r *RunRecord) SucceededCount() int {
	n := 0
	for i := range r.Instruments {
		if r.Instruments[i].Succeeded {
			n++
		}
	}
	return n
}

// SkippedCount returns the number of instruments that were skipped
func (r *RunRecord) SkippedCount() int {
	return len(r.Instruments) - r.SucceededCount()
}

// Status returns the instrument status for a symbol, if present
func (r *RunRecord) Status(symbol string) (*InstrumentStatus, bool) {
	for i := range r.Instruments {
		if r.Instruments[i].Symbol == symbol {
			return &r.Instruments[i], true
		}
	}
	return nil, false
}

// ProgressEvent is a single per-instrument notification emitted by the
// orchestrator while a run is in flight. Done/Total carry the running
// completion count so sinks can render progress without extra state.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Symbol    string    `json:"symbol"`
	Stage     Stage     `json:"stage"`
	Succeeded bool      `json:"succeeded"`
	Reason    string    `json:"reason,omitempty"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
