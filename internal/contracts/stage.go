package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 런 결과, DB row에서 이 상수를 사용해야 함
//
// 인스트루먼트별 상태 머신:
//   Loaded → Indicators → Targets → Cleaned → Scaled → Persisted

// Stage represents a per-instrument pipeline stage
type Stage string

const (
	// StageLoaded 원본 시계열 확보 및 스키마 검증 완료
	// 책임: CSV 로드, 정렬, 중복 제거
	// 위치: internal/dataset/
	StageLoaded Stage = "LOADED"

	// StageIndicators 기술적 지표 컬럼 추가 완료
	// 책임: SMA/EMA/RSI/MACD/볼린저/스토캐스틱/모멘텀/변동성
	// 위치: internal/indicators/
	StageIndicators Stage = "INDICATORS"

	// StageTargets 예측 타깃 컬럼 추가 완료
	// 책임: future_close, target_return/direction/volatility
	// 위치: internal/targets/
	StageTargets Stage = "TARGETS"

	// StageCleaned 행 필터링 및 결측 처리 완료
	// 책임: 불량 행 제거, 파생 컬럼 전방 채움, 최소 행수 검증
	// 위치: internal/pipeline/clean.go
	StageCleaned Stage = "CLEANED"

	// StageScaled 그룹별 정규화 완료
	// 책임: 인스트루먼트별 min-max 스케일링
	// 위치: internal/pipeline/scale.go
	StageScaled Stage = "SCALED"

	// StagePersisted 산출물 기록 완료
	// 책임: CSV 내보내기, 선택적 DB 저장
	// 위치: internal/export/, internal/storage/
	StagePersisted Stage = "PERSISTED"
)

// stageOrder lists stages in execution order
var stageOrder = []Stage{
	StageLoaded,
	StageIndicators,
	StageTargets,
	StageCleaned,
	StageScaled,
	StagePersisted,
}

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Order returns the position of the stage in the pipeline (0-based),
// or -1 for an unknown stage
func (s Stage) Order() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage, or the stage itself when terminal
func (s Stage) Next() Stage {
	i := s.Order()
	if i < 0 || i >= len(stageOrder)-1 {
		return s
	}
	return stageOrder[i+1]
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoaded:
		return "시계열 로드/검증"
	case StageIndicators:
		return "기술적 지표 계산"
	case StageTargets:
		return "예측 타깃 생성"
	case StageCleaned:
		return "정제/결측 처리"
	case StageScaled:
		return "그룹별 정규화"
	case StagePersisted:
		return "산출물 기록"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns the stages in execution order
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}
