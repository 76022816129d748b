// Package catalogue reads the static cars-and-tracks reference JSON shipped
// alongside the binary, one file per supported game. The data itself is
// curated outside the core; this package only resolves a game key to a
// file and reads it verbatim.
package catalogue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnknownGame marks a game key with no catalogue file, a configuration
// error surfaced to the caller without mutating any state.
type ErrUnknownGame struct {
	Game string
}

func (e *ErrUnknownGame) Error() string { return fmt.Sprintf("catalogue: unknown game key %q", e.Game) }

var gameFiles = map[string]string{
	"f1_24": "f1_24.json",
	"f1_25": "f1_25.json",
	"lmu":   "lmu.json",
	"gt7":   "gt7.json",
}

// Provider resolves a game key to its catalogue file under dir (typically
// "data/cars_tracks" relative to the binary's working directory).
type Provider struct {
	dir string
}

// NewProvider returns a Provider rooted at dir.
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

// CarsAndTracks reads and returns the raw JSON catalogue for game.
func (p *Provider) CarsAndTracks(game string) (json.RawMessage, error) {
	file, ok := gameFiles[game]
	if !ok {
		return nil, &ErrUnknownGame{Game: game}
	}
	return os.ReadFile(filepath.Join(p.dir, file))
}

// DefaultDir is the catalogue directory relative to the working directory.
func DefaultDir() string {
	return filepath.Join("data", "cars_tracks")
}
