// Package app binds the session's operation surface to a Wails frontend.
// Every method on App is callable from the UI host; App itself holds no
// telemetry state -- it only translates between JSON-friendly argument
// types and the session package's Go-native ones.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psybedev/delta/catalogue"
	"github.com/psybedev/delta/ingest"
	"github.com/psybedev/delta/session"
	"github.com/psybedev/delta/workspace"
)

// App is the struct Wails binds to the frontend. ctx is set in Startup and
// is only used for Wails runtime calls (none currently needed), not for
// cancelling session work -- the session manages its own adapter lifetimes.
type App struct {
	ctx context.Context
	sess *session.Session
}

// New constructs an App around a fresh session rooted at the default
// workspace and catalogue directories.
func New() *App {
	return &App{sess: session.New(workspace.DefaultDir(), catalogue.DefaultDir())}
}

// Startup is called by Wails once the frontend is ready.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Shutdown is called by Wails as the app closes; it stops every running
// adapter so no goroutine outlives the process intentionally.
func (a *App) Shutdown(ctx context.Context) {
	_ = a.sess.StopAll()
}

// StartF1Config is the JSON-friendly mirror of ingest.F1Config.
type StartF1Config struct {
	BindAddr       string `json:"bind_addr"`
	ExpectedFormat int    `json:"expected_format"`
}

// StartF1 starts an F1 UDP source adapter.
func (a *App) StartF1(cfg StartF1Config) error {
	return a.sess.StartF1(ingest.F1Config{BindAddr: cfg.BindAddr, ExpectedFormat: cfg.ExpectedFormat})
}

// StartGT7Config is the JSON-friendly mirror of ingest.GT7Config.
type StartGT7Config struct {
	BindAddr      string `json:"bind_addr"`
	ConsoleIP     string `json:"console_ip"`
	PacketVariant string `json:"packet_variant"`
}

// StartGT7 starts a GT7 UDP client adapter.
func (a *App) StartGT7(cfg StartGT7Config) error {
	variant := byte('A')
	if len(cfg.PacketVariant) > 0 {
		variant = cfg.PacketVariant[0]
	}
	return a.sess.StartGT7(ingest.GT7Config{BindAddr: cfg.BindAddr, ConsoleIP: cfg.ConsoleIP, PacketVariant: variant})
}

// StartLMU starts the Windows shared-memory adapter.
func (a *App) StartLMU() error {
	return a.sess.StartLMU()
}

// StartIRacingConfig is the JSON-friendly mirror of ingest.IRacingConfig.
type StartIRacingConfig struct {
	PollIntervalMs int `json:"poll_interval_ms"`
}

// StartIRacing starts the iRacing shared-memory adapter.
func (a *App) StartIRacing(cfg StartIRacingConfig) error {
	return a.sess.StartIRacing(ingest.IRacingConfig{PollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond})
}

// StopAll stops every running source adapter.
func (a *App) StopAll() error {
	return a.sess.StopAll()
}

// LapSummaryRow is the JSON-friendly mirror of store.LapListing.
type LapSummaryRow struct {
	ID        string `json:"id"`
	Game      string `json:"game"`
	Track     string `json:"track"`
	Car       string `json:"car"`
	LapNumber uint32 `json:"lap_number"`
	TimeMs    uint64 `json:"time_ms"`
}

// ListLaps returns every stored lap's summary, ascending by time_ms.
func (a *App) ListLaps() []LapSummaryRow {
	rows := a.sess.ListLaps()
	out := make([]LapSummaryRow, len(rows))
	for i, r := range rows {
		out[i] = LapSummaryRow{ID: r.ID.String(), Game: r.Game, Track: r.Track, Car: r.Car, LapNumber: r.LapNumber, TimeMs: r.TimeMs}
	}
	return out
}

// AnalyzeLaps runs the full analysis kernel over the given lap ids.
func (a *App) AnalyzeLaps(ids []string) (session.AnalyzeResult, error) {
	parsed := make([]uuid.UUID, len(ids))
	for i, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return session.AnalyzeResult{}, fmt.Errorf("analyze_laps: invalid lap id %q: %w", s, err)
		}
		parsed[i] = id
	}
	return a.sess.AnalyzeLaps(parsed)
}

// BuildTrackMap derives the track map for one stored lap.
func (a *App) BuildTrackMap(lapID string) (interface{}, error) {
	id, err := uuid.Parse(lapID)
	if err != nil {
		return nil, fmt.Errorf("build_track_map: invalid lap id %q: %w", lapID, err)
	}
	return a.sess.BuildTrackMap(id)
}

// ImportFile loads laps from a CSV or NDJSON file on disk.
func (a *App) ImportFile(path string) (int, error) {
	return a.sess.ImportFile(path)
}

// ExportFile writes every stored lap to path in the given format.
func (a *App) ExportFile(kind, path string) error {
	return a.sess.ExportFile(kind, path)
}

// SaveWorkspace persists a named workspace payload.
func (a *App) SaveWorkspace(name string, payload json.RawMessage) error {
	return a.sess.Workspace.Save(name, payload)
}

// LoadWorkspace reads a named workspace payload back.
func (a *App) LoadWorkspace(name string) (json.RawMessage, error) {
	return a.sess.Workspace.Load(name)
}

// ListWorkspaces lists every known workspace name.
func (a *App) ListWorkspaces() ([]string, error) {
	return a.sess.Workspace.List()
}

// CarsAndTracks reads the static reference catalogue for game.
func (a *App) CarsAndTracks(game string) (json.RawMessage, error) {
	return a.sess.Catalogue.CarsAndTracks(game)
}
