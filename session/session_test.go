package session

import (
	"context"
	"testing"
	"time"

	"github.com/psybedev/delta/ingest"
	"github.com/psybedev/delta/model"
)

// fakeSource feeds a fixed sequence of samples to the channel and then
// blocks until ctx is cancelled, mirroring a real adapter's shape without
// touching a socket or shared-memory mapping.
type fakeSource struct {
	samples []model.TelemetrySample
}

func (f *fakeSource) Run(ctx context.Context, ch *ingest.SampleChannel) error {
	for _, s := range f.samples {
		if err := ch.Send(s); err != nil {
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

func waitForLapCount(t *testing.T, s *Session, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if len(s.Store.List()) >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d stored laps, have %d", want, len(s.Store.List()))
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSessionFeedsBuilderAndStoresClosedLap(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())

	samples := []model.TelemetrySample{
		{Game: model.GameGT7, SimTimeS: 0, SpeedMPS: 10, WorldPosX: 0, WorldPosZ: 0, CurrentLap: 1},
		{Game: model.GameGT7, SimTimeS: 1, SpeedMPS: 10, WorldPosX: 5, WorldPosZ: 0, CurrentLap: 1},
		{Game: model.GameGT7, SimTimeS: 2, SpeedMPS: 10, WorldPosX: 10, WorldPosZ: 0, CurrentLap: 2},
	}
	s.start("fake", &fakeSource{samples: samples})
	defer s.StopAll()

	waitForLapCount(t, s, 1)

	listing := s.Store.List()
	if listing[0].LapNumber != 1 {
		t.Errorf("closed lap number = %d, want 1", listing[0].LapNumber)
	}
}

func TestStopAllDrainsConsumers(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	s.start("fake", &fakeSource{samples: nil})
	if err := s.StopAll(); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if len(s.sources) != 0 {
		t.Errorf("sources not cleared after StopAll: %v", s.sources)
	}
}

func TestAnalyzeLapsEmptyInputErrors(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	if _, err := s.AnalyzeLaps(nil); err == nil {
		t.Error("expected error for empty lap id list")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	lap := model.NewLap("F1-2024", "car", "track", 1)
	lap.Points = []model.TelemetryPoint{{TMs: 0}, {TMs: 500}}
	lap.TotalTimeMs = 500
	s.Store.Insert(lap)

	path := t.TempDir() + "/laps.ndjson"
	if err := s.ExportFile("ndjson", path); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}

	s2 := New(t.TempDir(), t.TempDir())
	n, err := s2.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n != 1 {
		t.Errorf("imported %d laps, want 1", n)
	}
}
