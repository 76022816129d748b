// Package workspace is the JSON-blob persistence layer for named
// workspaces: small payloads written and read verbatim under a per-user
// directory, with no validation of their shape beyond Save rejecting a
// payload that is not valid JSON.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultWorkspaceName is synthesized in List if no file by this name
// exists yet, so a fresh install always has at least one workspace to load.
const DefaultWorkspaceName = "Default"

// Store reads and writes workspace JSON blobs as "<dir>/<name>.json"; with
// DefaultDir that is "<user-config-dir>/Delta/workspaces/<name>.json".
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. Callers typically pass the
// result of DefaultDir().
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns "Delta/workspaces" under os.UserConfigDir(), falling
// back to the current working directory if the platform has none. On Linux
// that is the XDG config directory ($XDG_CONFIG_HOME or ~/.config), not the
// XDG data directory.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, "Delta", "workspaces")
}

// Save writes payload as name's workspace file, creating the directory if
// needed. A payload that is not valid JSON is rejected.
func (s *Store) Save(name string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("workspace: payload for %q is not valid JSON", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(name), payload, 0o644)
}

// Load reads name's workspace file verbatim.
func (s *Store) Load(name string) (json.RawMessage, error) {
	return os.ReadFile(s.path(name))
}

// List returns every workspace name found on disk (file stem, no
// extension), synthesizing "Default" if it isn't already present.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{DefaultWorkspaceName}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries)+1)
	haveDefault := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		names = append(names, name)
		if name == DefaultWorkspaceName {
			haveDefault = true
		}
	}
	if !haveDefault {
		names = append(names, DefaultWorkspaceName)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
