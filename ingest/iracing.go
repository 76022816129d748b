package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mpapenbr/goirsdk/irsdk"

	"github.com/psybedev/delta/model"
)

// IRacingConfig configures the iRacing shared-memory adapter. PollInterval
// defaults to 16ms (roughly 60Hz) when zero.
type IRacingConfig struct {
	PollInterval time.Duration
}

// DefaultIRacingConfig holds the adapter's default polling cadence.
func DefaultIRacingConfig() IRacingConfig {
	return IRacingConfig{PollInterval: 16 * time.Millisecond}
}

// IRacingSource reads live telemetry from a running iRacing client through
// the SDK's shared-memory mapping. Unlike the UDP adapters it has no socket
// to hold; "connection" means the simulator process is up and broadcasting
// through irsdk.
type IRacingSource struct {
	cfg IRacingConfig
}

// NewIRacingSource constructs an adapter with the given polling interval.
func NewIRacingSource(cfg IRacingConfig) *IRacingSource {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultIRacingConfig().PollInterval
	}
	return &IRacingSource{cfg: cfg}
}

// Run waits for iRacing to be running, attaches to its shared-memory
// interface, and polls it at cfg.PollInterval until ctx is cancelled. A
// sim that isn't running yet is not an error: Run waits cooperatively and
// exits cleanly if ctx is cancelled first.
func (s *IRacingSource) Run(ctx context.Context, ch *SampleChannel) error {
	client := &http.Client{Timeout: 10 * time.Second}

	for {
		running, err := irsdk.IsSimRunning(ctx, client)
		if err != nil {
			return &FatalError{Adapter: "iracing", Err: fmt.Errorf("check sim running: %w", err)}
		}
		if running {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}

	api := irsdk.NewIrsdk()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !api.WaitForValidData() {
				continue // transient: SDK not ready yet, keep polling
			}
			api.GetData()
			sample, ok := iracingReadSample(api)
			if !ok {
				continue
			}
			if err := ch.Send(sample); err != nil {
				return nil // receiver closed: cooperative shutdown
			}
		}
	}
}

// iracingReadSample pulls one instant of player telemetry out of api's
// currently-loaded variable block. Missing or unreadable variables other
// than SessionTime default to their zero value rather than aborting the
// sample: the SDK exposes a different variable set depending on car and
// session state, and losing one field shouldn't drop the whole sample. An
// unreadable SessionTime yields no sample for this tick (ok is false).
func iracingReadSample(api *irsdk.Irsdk) (model.TelemetrySample, bool) {
	sessionTime, err := api.GetDoubleValue("SessionTime")
	if err != nil {
		return model.TelemetrySample{}, false
	}

	lap, _ := api.GetIntValue("Lap")
	lapDistPct, _ := api.GetFloatValue("LapDistPct")
	trackLength, _ := api.GetFloatValue("TrackLength")

	speed, _ := api.GetFloatValue("Speed")
	rpm, _ := api.GetFloatValue("RPM")
	gear, _ := api.GetIntValue("Gear")
	throttle, _ := api.GetFloatValue("Throttle")
	brake, _ := api.GetFloatValue("Brake")

	return model.TelemetrySample{
		Game:         model.GameIRacing,
		CarID:        "player:0",
		SessionUID:   "iracing",
		SimTimeS:     sessionTime,
		SpeedMPS:     float64(speed),
		Throttle:     SanitizeUnit(float64(throttle)),
		Brake:        SanitizeUnit(float64(brake)),
		Gear:         int8(gear),
		EngineRPM:    float64(rpm),
		LapDistanceM: float64(lapDistPct) * float64(trackLength) * 1000.0,
		CurrentLap:   uint32(lap),
	}, true
}
