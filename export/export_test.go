package export

import (
	"path/filepath"
	"testing"

	"github.com/psybedev/delta/model"
)

func sampleLap() *model.Lap {
	lap := model.NewLap("F1-2024", "Car", "Track", 1)
	lap.Points = []model.TelemetryPoint{
		{TMs: 0, LapDistanceM: 0, X: 0, Y: 0, SpeedKph: 120.5, Throttle: 1, Brake: 0, Gear: 3, RPM: 8000},
		{TMs: 1000.5, LapDistanceM: 42.123, X: 1.2345, Y: -3.4567, SpeedKph: 150.25, Throttle: 0.5, Brake: 0.2, Gear: 4, RPM: 9500.5},
	}
	lap.TotalTimeMs = 1000
	return lap
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laps.csv")
	lap := sampleLap()

	if err := WriteCSV([]*model.Lap{lap}, path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	laps, err := ImportCSV(path)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if len(laps) != 1 {
		t.Fatalf("len(laps) = %d, want 1", len(laps))
	}
	if len(laps[0].Points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(laps[0].Points))
	}
	if laps[0].Meta.Game != "F1-2024" || laps[0].Meta.Car != "Car" || laps[0].Meta.Track != "Track" {
		t.Errorf("meta not preserved: %+v", laps[0].Meta)
	}
	p1 := laps[0].Points[1]
	if !floatEquals(p1.LapDistanceM, 42.123, 1e-3) {
		t.Errorf("lap_distance_m = %v, want ~42.123", p1.LapDistanceM)
	}
	if !floatEquals(p1.X, 1.2345, 1e-4) {
		t.Errorf("x = %v, want ~1.2345", p1.X)
	}
}

func TestNDJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laps.ndjson")
	lap := sampleLap()

	if err := WriteNDJSON([]*model.Lap{lap}, path); err != nil {
		t.Fatalf("WriteNDJSON: %v", err)
	}
	laps, err := ImportNDJSON(path)
	if err != nil {
		t.Fatalf("ImportNDJSON: %v", err)
	}
	if len(laps) != 1 {
		t.Fatalf("len(laps) = %d, want 1", len(laps))
	}
	if laps[0].ID != lap.ID {
		t.Errorf("id not preserved: got %v, want %v", laps[0].ID, lap.ID)
	}
	if laps[0].Points[1] != lap.Points[1] {
		t.Errorf("point not bit-for-bit preserved: got %+v, want %+v", laps[0].Points[1], lap.Points[1])
	}
}

func TestWriteUnsupportedKindErrors(t *testing.T) {
	dir := t.TempDir()
	if err := Write("xml", filepath.Join(dir, "x"), nil); err == nil {
		t.Error("expected error for unsupported export kind")
	}
}

func TestImportAutoUnsupportedExtensionErrors(t *testing.T) {
	if _, err := ImportAuto("telemetry.xyz"); err == nil {
		t.Error("expected error for unsupported import extension")
	}
}

func floatEquals(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
