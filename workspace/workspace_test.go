package workspace

import (
	"encoding/json"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	payload := json.RawMessage(`{"layout":"dual"}`)

	if err := s.Save("MyWorkspace", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("MyWorkspace")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %s, want %s", got, payload)
	}
}

func TestListSynthesizesDefault(t *testing.T) {
	s := NewStore(t.TempDir())
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != DefaultWorkspaceName {
		t.Errorf("names = %v, want [%s]", names, DefaultWorkspaceName)
	}
}

func TestListDoesNotDuplicateExistingDefault(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Save(DefaultWorkspaceName, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("Other", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	count := 0
	for _, n := range names {
		if n == DefaultWorkspaceName {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Default listed %d times, want 1 (names=%v)", count, names)
	}
	if len(names) != 2 {
		t.Errorf("len(names) = %d, want 2", len(names))
	}
}
