package lapbuilder

import (
	"math"
	"testing"

	"github.com/psybedev/delta/model"
)

func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func sampleAt(t float64, lap uint32, speed float64) model.TelemetrySample {
	return model.TelemetrySample{
		Game:         model.GameF1_2024,
		SimTimeS:     t,
		CurrentLap:   lap,
		LapDistanceM: 0,
		WorldPosX:    t, // monotonically increasing so cum_dist advances
		WorldPosZ:    0,
		SpeedMPS:     speed,
	}
}

func TestFeed_AuthoritativeRollover(t *testing.T) {
	b := New()
	var closedLaps []*model.Lap
	for i := 0; i < 100; i++ {
		if closed, ok := b.Feed("src", sampleAt(float64(i)*0.1, 1, 2.0)); ok {
			closedLaps = append(closedLaps, closed)
		}
	}
	if len(closedLaps) != 0 {
		t.Fatalf("no rollover expected yet, got %d", len(closedLaps))
	}

	closed, ok := b.Feed("src", sampleAt(45, 2, 2.0))
	if !ok {
		t.Fatal("expected a rollover on lap-number increment")
	}
	if len(closed.Points) != 100 {
		t.Errorf("closed lap has %d points, want 100", len(closed.Points))
	}

	inProgress, ok := b.InProgress("src")
	if !ok {
		t.Fatal("expected a new in-progress lap")
	}
	if inProgress.Meta.LapNumber != 2 {
		t.Errorf("new lap number = %d, want 2", inProgress.Meta.LapNumber)
	}
	if len(inProgress.Points) != 1 {
		t.Errorf("new lap should have exactly the rollover sample's point, got %d", len(inProgress.Points))
	}
}

func TestFeed_HeuristicRollover(t *testing.T) {
	b := New()
	// establish start position once speed exceeds the gate
	b.Feed("src", model.TelemetrySample{SimTimeS: 0, SpeedMPS: 5, WorldPosX: 0, WorldPosZ: 0})

	// stay out on track past the 15s elapsed threshold
	b.Feed("src", model.TelemetrySample{SimTimeS: 16, SpeedMPS: 5, WorldPosX: 500, WorldPosZ: 0})

	// loop back within 20m of start with speed > 1 m/s: should trigger rollover
	closed, ok := b.Feed("src", model.TelemetrySample{SimTimeS: 16.5, SpeedMPS: 2.0, WorldPosX: 5, WorldPosZ: 0})
	if !ok {
		t.Fatal("expected heuristic rollover")
	}
	if len(closed.Points) != 3 {
		t.Errorf("closed lap has %d points, want 3", len(closed.Points))
	}
}

func TestFeed_NoHeuristicRolloverBelowElapsedThreshold(t *testing.T) {
	b := New()
	b.Feed("src", model.TelemetrySample{SimTimeS: 0, SpeedMPS: 5, WorldPosX: 0, WorldPosZ: 0})
	b.Feed("src", model.TelemetrySample{SimTimeS: 5, SpeedMPS: 5, WorldPosX: 500, WorldPosZ: 0})
	_, ok := b.Feed("src", model.TelemetrySample{SimTimeS: 5.5, SpeedMPS: 2.0, WorldPosX: 5, WorldPosZ: 0})
	if ok {
		t.Error("rollover should not fire before the 15s elapsed threshold")
	}
}

func TestFeed_LapDistanceFallsBackToEuclideanStep(t *testing.T) {
	b := New()
	b.Feed("src", model.TelemetrySample{SimTimeS: 0, WorldPosX: 0, WorldPosZ: 0, LapDistanceM: 0})
	b.Feed("src", model.TelemetrySample{SimTimeS: 1, WorldPosX: 3, WorldPosZ: 4, LapDistanceM: 0})
	lap, _ := b.InProgress("src")
	if !floatEquals(lap.Points[1].LapDistanceM, 5.0, 1e-9) {
		t.Errorf("lap_distance_m = %v, want 5 (3-4-5 triangle step)", lap.Points[1].LapDistanceM)
	}
}

func TestFeed_LapDistanceUsesAuthoritativeValueWhenPresent(t *testing.T) {
	b := New()
	b.Feed("src", model.TelemetrySample{SimTimeS: 0, WorldPosX: 0, WorldPosZ: 0, LapDistanceM: 42.0})
	lap, _ := b.InProgress("src")
	if lap.Points[0].LapDistanceM != 42.0 {
		t.Errorf("lap_distance_m = %v, want 42", lap.Points[0].LapDistanceM)
	}
}

func TestFeed_TotalTimeMsTracksFirstPoint(t *testing.T) {
	b := New()
	b.Feed("src", model.TelemetrySample{SimTimeS: 1.0})
	b.Feed("src", model.TelemetrySample{SimTimeS: 1.5})
	lap, _ := b.InProgress("src")
	if lap.TotalTimeMs != 500 {
		t.Errorf("total_time_ms = %d, want 500", lap.TotalTimeMs)
	}
}
