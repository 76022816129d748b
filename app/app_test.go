package app

import (
	"encoding/json"
	"testing"

	"github.com/psybedev/delta/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	return session.New(t.TempDir(), t.TempDir())
}

func TestSaveAndLoadWorkspaceRoundTrip(t *testing.T) {
	a := &App{sess: newTestSession(t)}
	payload := json.RawMessage(`{"panels":["overlay"]}`)

	if err := a.SaveWorkspace("Race Weekend", payload); err != nil {
		t.Fatalf("SaveWorkspace: %v", err)
	}
	got, err := a.LoadWorkspace("Race Weekend")
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %s, want %s", got, payload)
	}
}

func TestAnalyzeLapsRejectsMalformedID(t *testing.T) {
	a := &App{sess: newTestSession(t)}
	if _, err := a.AnalyzeLaps([]string{"not-a-uuid"}); err == nil {
		t.Error("expected error for malformed lap id")
	}
}

func TestBuildTrackMapRejectsMalformedID(t *testing.T) {
	a := &App{sess: newTestSession(t)}
	if _, err := a.BuildTrackMap("not-a-uuid"); err == nil {
		t.Error("expected error for malformed lap id")
	}
}

func TestListLapsEmptyStoreReturnsEmptySlice(t *testing.T) {
	a := &App{sess: newTestSession(t)}
	rows := a.ListLaps()
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}
