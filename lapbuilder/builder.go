// Package lapbuilder converts an unbounded stream of telemetry samples, keyed
// by source identifier, into closed Lap records. It is a per-source state
// machine with a dual-trigger rollover rule: an authoritative lap-number
// increment when the source reports one, and a heuristic distance/time/speed
// fallback for sources (GT7) that never do.
package lapbuilder

import (
	"math"

	"github.com/psybedev/delta/model"
)

// Rollover heuristic constants. These are part of the lap-segmentation
// contract, not tunables: changing them changes which samples end up in
// which lap, so they stay fixed for determinism even though they can
// mis-fire on pit lanes and tight oval warmups.
const (
	heuristicDistanceM  = 20.0
	heuristicElapsedMs  = 15000.0
	heuristicMinSpeed   = 1.0
	startPosSpeedGate   = 0.1
)

// state is the per-source lap-in-progress bookkeeping.
type state struct {
	current    *model.Lap
	last       *model.TelemetrySample
	haveStart  bool
	startX     float64
	startZ     float64
	cumDist    float64
	trackGuess float64
}

// Builder owns one state machine per source key. Unlike the session it was
// adapted from, a Builder holds no reference to the Lap Store: the Consumer
// calls Feed and receives completed laps back as ordinary return values,
// then decides where they're stored.
type Builder struct {
	states map[string]*state
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{states: make(map[string]*state)}
}

// Feed processes one sample for source key. It returns the lap that was
// just closed, if the sample triggered a rollover; otherwise ok is false.
func (b *Builder) Feed(key string, s model.TelemetrySample) (closed *model.Lap, ok bool) {
	st, exists := b.states[key]
	if !exists {
		st = &state{current: model.NewLap(string(s.Game), "Unknown", "Unknown", 1)}
		b.states[key] = st
	}

	if !st.haveStart && s.SpeedMPS > startPosSpeedGate {
		st.haveStart = true
		st.startX = s.WorldPosX
		st.startZ = s.WorldPosZ
	}

	tMs := s.SimTimeS * 1000.0
	lapDist := s.LapDistanceM
	if lapDist > 0 {
		st.cumDist = lapDist
	} else {
		if st.last != nil {
			dx := s.WorldPosX - st.last.WorldPosX
			dz := s.WorldPosZ - st.last.WorldPosZ
			st.cumDist += math.Sqrt(dx*dx + dz*dz)
		}
		lapDist = st.cumDist
	}

	point := model.TelemetryPoint{
		TMs:          tMs,
		LapDistanceM: lapDist,
		X:            s.WorldPosX,
		Y:            s.WorldPosZ,
		SpeedKph:     s.SpeedMPS * 3.6,
		Throttle:     s.Throttle,
		Brake:        s.Brake,
		Gear:         s.Gear,
		RPM:          s.EngineRPM,
	}
	st.current.Points = append(st.current.Points, point)
	firstT := st.current.Points[0].TMs
	st.current.TotalTimeMs = uint64(tMs - firstT)

	roll := false
	if st.last != nil && st.last.CurrentLap > 0 && s.CurrentLap > st.last.CurrentLap {
		roll = true
	}
	authoritative := roll
	if !roll && st.haveStart {
		dx := s.WorldPosX - st.startX
		dz := s.WorldPosZ - st.startZ
		dist := math.Sqrt(dx*dx + dz*dz)
		elapsed := tMs - firstT
		if dist < heuristicDistanceM && elapsed > heuristicElapsedMs && s.SpeedMPS > heuristicMinSpeed {
			roll = true
		}
	}

	if roll {
		finished := st.current
		// A sample that already reports the next lap number opens the new
		// lap rather than closing the old one.
		carry := authoritative && len(finished.Points) > 1
		if carry {
			finished.Points = finished.Points[:len(finished.Points)-1]
		}
		lastPoint := finished.Points[len(finished.Points)-1]
		finished.TotalTimeMs = uint64(lastPoint.TMs - finished.Points[0].TMs)
		if lastPoint.LapDistanceM > st.trackGuess {
			st.trackGuess = lastPoint.LapDistanceM
		}

		nextNum := s.CurrentLap
		if nextNum < 1 {
			nextNum = 1
		}
		st.current = model.NewLap(string(s.Game), "Unknown", "Unknown", nextNum)
		st.cumDist = 0
		if carry {
			if s.LapDistanceM <= 0 {
				point.LapDistanceM = 0
			}
			st.cumDist = point.LapDistanceM
			st.current.Points = append(st.current.Points, point)
		}

		sCopy := s
		st.last = &sCopy
		closed, ok = finished, true
	} else {
		sCopy := s
		st.last = &sCopy
	}

	return closed, ok
}

// InProgress returns the lap currently being built for key, if any. Used by
// orchestration to inspect a session without forcing a rollover.
func (b *Builder) InProgress(key string) (*model.Lap, bool) {
	st, ok := b.states[key]
	if !ok {
		return nil, false
	}
	return st.current, true
}
