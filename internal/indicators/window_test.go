package indicators

import (
	"math"
	"testing"
)

var nan = math.NaN()

// almostEq는 NaN == NaN으로 취급하는 근사 비교
func almostEq(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func checkSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if !almostEq(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestEffectiveMin(t *testing.T) {
	tests := []struct {
		period, minPeriods, want int
	}{
		{5, 0, 5},  // 0 = 엄격
		{5, -1, 5}, // 음수도 엄격
		{5, 3, 3},
		{5, 5, 5},
		{5, 6, 5}, // 윈도우보다 크면 윈도우로 클램프
	}
	for _, tt := range tests {
		if got := effectiveMin(tt.period, tt.minPeriods); got != tt.want {
			t.Errorf("effectiveMin(%d, %d) = %d, want %d", tt.period, tt.minPeriods, got, tt.want)
		}
	}
}

func TestRollingMeanStrict(t *testing.T) {
	src := []float64{10, 11, 9, 12, 12}
	want := []float64{nan, nan, 10, 32.0 / 3, 11}
	checkSeries(t, "mean", rollingMean(src, 3, 0), want)
}

func TestRollingMeanPartial(t *testing.T) {
	src := []float64{10, 11, 9, 12, 12}
	want := []float64{10, 10.5, 10, 32.0 / 3, 11}
	checkSeries(t, "mean", rollingMean(src, 3, 1), want)
}

func TestRollingMeanSkipsNaN(t *testing.T) {
	src := []float64{1, nan, 3, 4}

	// 엄격: 윈도우 안에 null이 있으면 유효 개수가 모자라 null
	checkSeries(t, "strict", rollingMean(src, 2, 0), []float64{nan, nan, nan, 3.5})

	// 부분 허용: 유효값 1개로도 평균 방출
	checkSeries(t, "partial", rollingMean(src, 2, 1), []float64{1, 1, 3, 3.5})
}

func TestRollingStd(t *testing.T) {
	// 표본 표준편차 (ddof=1)
	src := []float64{1, 2, 3, 4}
	checkSeries(t, "std", rollingStd(src, 3, 0), []float64{nan, nan, 1, 1})
}

func TestRollingStdNeedsTwo(t *testing.T) {
	// min_periods=1이어도 표준편차는 유효값 2개가 필요
	src := []float64{1, nan, nan}
	checkSeries(t, "std", rollingStd(src, 3, 1), []float64{nan, nan, nan})

	src = []float64{1, nan, 3}
	checkSeries(t, "std", rollingStd(src, 3, 2), []float64{nan, nan, math.Sqrt2})
}

func TestRollingMinMax(t *testing.T) {
	src := []float64{3, 1, 4, 1, 5}
	checkSeries(t, "min", rollingMin(src, 3, 0), []float64{nan, nan, 1, 1, 1})
	checkSeries(t, "max", rollingMax(src, 3, 0), []float64{nan, nan, 4, 4, 5})
}

func TestRollingEmptyInput(t *testing.T) {
	if got := rollingMean(nil, 3, 0); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}
