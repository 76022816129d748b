package catalogue

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCarsAndTracksReadsKnownGame(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f1_24.json"), []byte(`{"cars":["Red Bull"]}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	p := NewProvider(dir)

	got, err := p.CarsAndTracks("f1_24")
	if err != nil {
		t.Fatalf("CarsAndTracks: %v", err)
	}
	if string(got) != `{"cars":["Red Bull"]}` {
		t.Errorf("got %s", got)
	}
}

func TestCarsAndTracksUnknownGameErrors(t *testing.T) {
	p := NewProvider(t.TempDir())
	if _, err := p.CarsAndTracks("nfs_heat"); err == nil {
		t.Error("expected error for unknown game key")
	}
}

func TestCarsAndTracksMissingFileErrors(t *testing.T) {
	p := NewProvider(t.TempDir())
	if _, err := p.CarsAndTracks("gt7"); err == nil {
		t.Error("expected error when catalogue file is absent")
	}
}
