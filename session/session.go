// Package session is the orchestration layer: it starts and stops source
// adapters, runs one consumer loop per started adapter that feeds the lap
// builder and inserts closed laps into the Lap Store, and routes the operation surface
// (list/analyze/build-track-map/import/export/workspace/catalogue) to the
// right collaborator.
//
// A *Session handed to a goroutine is an ordinary reference kept alive by
// the garbage collector for as long as anything holds it, so callers share
// ownership just by passing the pointer around. No lifetime coercion or
// unsafe tricks required to keep it reachable for the life of a consumer
// goroutine.
package session

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/psybedev/delta/analysis"
	"github.com/psybedev/delta/catalogue"
	"github.com/psybedev/delta/export"
	"github.com/psybedev/delta/ingest"
	"github.com/psybedev/delta/lapbuilder"
	"github.com/psybedev/delta/model"
	"github.com/psybedev/delta/store"
	"github.com/psybedev/delta/workspace"
)

// runningSource tracks one started adapter so StopAll can tear it down.
type runningSource struct {
	kind   string
	cancel context.CancelFunc
	ch     *ingest.SampleChannel
	done   chan struct{}
	err    error
}

// Session owns every piece of mutable state the orchestration layer is
// responsible for: the lap builder (consumer-owned, single-threaded access
// enforced by mu), the Lap Store, and the set of adapters currently running.
// mu guards builder and sources; the Lap Store carries its own internal
// lock (see store.LapStore) so read-only operations (analysis, export) don't
// have to contend with it for the whole call.
type Session struct {
	mu      sync.Mutex
	builder *lapbuilder.Builder
	sources map[string]*runningSource
	nextID  int

	Store     *store.LapStore
	Workspace *workspace.Store
	Catalogue *catalogue.Provider
}

// New returns an idle session ready to start adapters.
func New(workspaceDir, catalogueDir string) *Session {
	return &Session{
		builder:   lapbuilder.New(),
		sources:   make(map[string]*runningSource),
		Store:     store.New(),
		Workspace: workspace.NewStore(workspaceDir),
		Catalogue: catalogue.NewProvider(catalogueDir),
	}
}

// AnalyzeResult bundles the four analytics an analyze_laps call returns.
type AnalyzeResult struct {
	Overlay     []analysis.OverlayRow
	DeltaRibbon []analysis.DeltaRow
	Corners     []model.Corner
	Summary     model.LapSummary
}

func (s *Session) registerSource(kind string, cancel context.CancelFunc, ch *ingest.SampleChannel) (key string, rs *runningSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	key = fmt.Sprintf("%s-%d", kind, s.nextID)
	rs = &runningSource{kind: kind, cancel: cancel, ch: ch, done: make(chan struct{})}
	s.sources[key] = rs
	return key, rs
}

// start launches src under a fresh context, wiring its output into a
// consumer loop of its own. It returns immediately; adapters fail fast inside
// Run on bind/connect errors, which are recorded in rs.err and logged. Nothing
// reads rs.err back, so such an error is not returned to the Start caller.
func (s *Session) start(kind string, src ingest.Source) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := ingest.NewSampleChannel()
	key, rs := s.registerSource(kind, cancel, ch)

	go func() {
		if err := src.Run(ctx, ch); err != nil {
			s.mu.Lock()
			rs.err = err
			s.mu.Unlock()
			log.Printf("session: %s adapter stopped with error: %v", kind, err)
		}
		ch.Close()
	}()

	go s.consume(key, ch, rs.done)
}

// consume is the single Consumer thread for one started adapter: it drains
// the channel, feeds the lap builder under mu, and inserts any rollover
// result into the Lap Store. Lap insertion order therefore matches sample
// arrival order within this source key.
func (s *Session) consume(key string, ch *ingest.SampleChannel, done chan struct{}) {
	defer close(done)
	for {
		sample, ok := ch.Recv()
		if !ok {
			return
		}
		s.mu.Lock()
		closed, rolled := s.builder.Feed(key, sample)
		s.mu.Unlock()
		if rolled {
			s.Store.Insert(closed)
		}
	}
}

// StartF1 starts a new F1 UDP source adapter.
func (s *Session) StartF1(cfg ingest.F1Config) error {
	s.start("f1", ingest.NewF1Source(cfg))
	return nil
}

// StartGT7 starts a new GT7 UDP client adapter.
func (s *Session) StartGT7(cfg ingest.GT7Config) error {
	s.start("gt7", ingest.NewGT7Source(cfg))
	return nil
}

// StartLMU starts a new LMU shared-memory adapter. On non-Windows builds the
// adapter's Run immediately returns a platform-not-supported ConfigError,
// which surfaces here as an error without having mutated any session state.
func (s *Session) StartLMU() error {
	src := ingest.NewLMUSource()
	if runtime.GOOS != "windows" {
		// The non-Windows stand-in returns its error without touching ch.
		return src.Run(context.Background(), nil)
	}
	s.start("lmu", src)
	return nil
}

// StartIRacing starts a new iRacing shared-memory adapter.
func (s *Session) StartIRacing(cfg ingest.IRacingConfig) error {
	s.start("iracing", ingest.NewIRacingSource(cfg))
	return nil
}

// StopAll cancels every running adapter's context and waits for its
// consumer loop to drain and exit.
func (s *Session) StopAll() error {
	s.mu.Lock()
	sources := make([]*runningSource, 0, len(s.sources))
	for _, rs := range s.sources {
		sources = append(sources, rs)
	}
	s.sources = make(map[string]*runningSource)
	s.mu.Unlock()

	for _, rs := range sources {
		rs.cancel()
		rs.ch.Close()
		<-rs.done
	}
	return nil
}

// ListLaps returns every stored lap's summary, sorted by ascending time_ms.
func (s *Session) ListLaps() []store.LapListing {
	return s.Store.List()
}

// AnalyzeLaps runs the full analysis kernel over the given lap ids. The
// reference lap is the fastest among them; an empty id list is an error and
// produces no partial output.
func (s *Session) AnalyzeLaps(ids []uuid.UUID) (AnalyzeResult, error) {
	if len(ids) == 0 {
		return AnalyzeResult{}, analysis.ErrEmptyInput
	}
	laps, err := s.Store.GetMany(ids)
	if err != nil {
		return AnalyzeResult{}, err
	}

	reference := laps[0]
	for _, lap := range laps[1:] {
		if lap.TotalTimeMs < reference.TotalTimeMs {
			reference = lap
		}
	}

	overlay, err := analysis.OverlaySpeedVsDistance(laps)
	if err != nil {
		return AnalyzeResult{}, err
	}
	delta, err := analysis.RollingDeltaVsReference(reference, laps)
	if err != nil {
		return AnalyzeResult{}, err
	}
	corners, err := analysis.PerCornerMetrics(reference)
	if err != nil {
		return AnalyzeResult{}, err
	}
	summary, err := analysis.LapSummary(laps)
	if err != nil {
		return AnalyzeResult{}, err
	}

	return AnalyzeResult{Overlay: overlay, DeltaRibbon: delta, Corners: corners, Summary: summary}, nil
}

// BuildTrackMap derives the track map for a single stored lap.
func (s *Session) BuildTrackMap(id uuid.UUID) (model.TrackMap, error) {
	lap, err := s.Store.Get(id)
	if err != nil {
		return model.TrackMap{}, err
	}
	return analysis.BuildTrackMap(lap)
}

// ImportFile loads laps from a CSV or NDJSON file and inserts them into the
// Lap Store, returning the number of laps imported.
func (s *Session) ImportFile(path string) (int, error) {
	laps, err := export.ImportAuto(path)
	if err != nil {
		return 0, err
	}
	for _, lap := range laps {
		s.Store.Insert(lap)
	}
	return len(laps), nil
}

// ExportFile writes every stored lap to path in the given format.
func (s *Session) ExportFile(kind, path string) error {
	laps := s.Store.Snapshot()
	return export.Write(kind, path, laps)
}
