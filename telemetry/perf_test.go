package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAdvect)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhasePressure)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[PhaseAdvect]; !ok {
		t.Error("expected advect phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhasePressure]; !ok {
		t.Error("expected pressure phase to be tracked")
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v exceeds max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDivergence)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseInject)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhasePressure)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhasePressure] <= stats.PhasePct[PhaseInject] {
		t.Errorf("expected pressure (%v%%) > inject (%v%%)",
			stats.PhasePct[PhasePressure], stats.PhasePct[PhaseInject])
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 || row.PressurePct != stats.PhasePct[PhasePressure] {
		t.Errorf("unexpected CSV row %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}
