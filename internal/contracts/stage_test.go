package contracts

import "testing"

func TestStage_Order(t *testing.T) {
	tests := []struct {
		stage Stage
		want  int
	}{
		{StageLoaded, 0},
		{StageIndicators, 1},
		{StageTargets, 2},
		{StageCleaned, 3},
		{StageScaled, 4},
		{StagePersisted, 5},
		{Stage("BOGUS"), -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.Order(); got != tt.want {
				t.Errorf("Order() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStage_Next(t *testing.T) {
	tests := []struct {
		stage Stage
		want  Stage
	}{
		{StageLoaded, StageIndicators},
		{StageIndicators, StageTargets},
		{StageTargets, StageCleaned},
		{StageCleaned, StageScaled},
		{StageScaled, StagePersisted},
		{StagePersisted, StagePersisted}, // terminal
		{Stage("BOGUS"), Stage("BOGUS")}, // unknown stays put
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.Next(); got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllStages(t *testing.T) {
	stages := AllStages()
	if len(stages) != 6 {
		t.Fatalf("AllStages() returned %d stages, want 6", len(stages))
	}

	if stages[0] != StageLoaded || stages[len(stages)-1] != StagePersisted {
		t.Errorf("AllStages() order wrong: %v", stages)
	}

	// Mutating the returned slice must not affect internal order
	stages[0] = Stage("MUTATED")
	if AllStages()[0] != StageLoaded {
		t.Error("AllStages() must return a copy")
	}
}
