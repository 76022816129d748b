// Package analysis is the pure function library that turns one or more Laps
// into comparative analytics: speed-vs-distance overlays, rolling deltas
// against a reference, a curvature-derived track map, per-corner metrics,
// and lap summaries. Nothing here touches the Lap Store directly; callers
// pass in snapshots.
package analysis

import (
	"fmt"
	"math"

	"github.com/psybedev/delta/model"
	"gonum.org/v1/gonum/stat"
)

// OverlayRow is one distance sample across every lap passed to
// OverlaySpeedVsDistance.
type OverlayRow struct {
	Distance   float64
	SpeedByLap map[string]float64 // keyed by lap id string
}

// DeltaRow is one distance sample of the rolling delta against a reference.
type DeltaRow struct {
	Distance float64
	DeltaMs  float64
}

// ErrEmptyInput is returned by operations that require at least one lap.
var ErrEmptyInput = fmt.Errorf("analysis: at least one lap is required")

// OverlaySpeedVsDistance builds a distance-indexed speed comparison across
// laps. The grid runs 0..floor(max_len) where max_len is the greatest last-
// point lap_distance_m across all laps.
func OverlaySpeedVsDistance(laps []*model.Lap) ([]OverlayRow, error) {
	if len(laps) == 0 {
		return nil, ErrEmptyInput
	}
	maxLen := 0.0
	for _, lap := range laps {
		if len(lap.Points) == 0 {
			continue
		}
		last := lap.Points[len(lap.Points)-1].LapDistanceM
		if last > maxLen {
			maxLen = last
		}
	}

	rows := make([]OverlayRow, 0, int(maxLen)+1)
	for d := 0; d <= int(maxLen); d++ {
		row := OverlayRow{Distance: float64(d), SpeedByLap: make(map[string]float64, len(laps))}
		for _, lap := range laps {
			row.SpeedByLap[lap.ID.String()] = sampleSpeedAtDistance(lap, float64(d))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sampleSpeedAtDistance returns the speed of the point whose lap_distance_m
// minimizes |lap_distance_m - d|. The first match wins on ties (strict "<"
// comparison against the running best).
func sampleSpeedAtDistance(lap *model.Lap, d float64) float64 {
	if len(lap.Points) == 0 {
		return 0
	}
	best := lap.Points[0].SpeedKph
	bestDiff := math.Inf(1)
	for _, p := range lap.Points {
		diff := math.Abs(p.LapDistanceM - d)
		if diff < bestDiff {
			bestDiff = diff
			best = p.SpeedKph
		}
	}
	return best
}

// timeAtDistance returns the elapsed time (ms, relative to the lap's first
// point) of the point nearest to distance d.
func timeAtDistance(lap *model.Lap, d float64) float64 {
	if len(lap.Points) == 0 {
		return 0
	}
	bestT := lap.Points[len(lap.Points)-1].TMs
	bestDiff := math.Inf(1)
	for _, p := range lap.Points {
		diff := math.Abs(p.LapDistanceM - d)
		if diff < bestDiff {
			bestDiff = diff
			bestT = p.TMs
		}
	}
	return bestT - lap.Points[0].TMs
}

// RollingDeltaVsReference computes, for each distance in the grid bounded by
// the reference lap's own max distance, the average time delta of every
// other lap versus the reference. With no peer laps the delta is zero at
// every distance.
func RollingDeltaVsReference(reference *model.Lap, laps []*model.Lap) ([]DeltaRow, error) {
	if reference == nil || len(reference.Points) == 0 {
		return nil, ErrEmptyInput
	}
	maxLen := reference.Points[len(reference.Points)-1].LapDistanceM

	var peers []*model.Lap
	for _, lap := range laps {
		if lap.ID != reference.ID {
			peers = append(peers, lap)
		}
	}

	rows := make([]DeltaRow, 0, int(maxLen)+1)
	for d := 0; d <= int(maxLen); d++ {
		dist := float64(d)
		tRef := timeAtDistance(reference, dist)
		deltaMs := 0.0
		if len(peers) > 0 {
			sum := 0.0
			for _, lap := range peers {
				sum += timeAtDistance(lap, dist) - tRef
			}
			deltaMs = sum / float64(len(peers))
		}
		rows = append(rows, DeltaRow{Distance: dist, DeltaMs: deltaMs})
	}
	return rows, nil
}

// BuildTrackMap derives polyline, bounding box, corner labels, and
// auto-sectors from a single reference lap's points.
func BuildTrackMap(lap *model.Lap) (model.TrackMap, error) {
	if lap == nil || len(lap.Points) == 0 {
		return model.TrackMap{}, ErrEmptyInput
	}

	polyline := make([]model.Point2, len(lap.Points))
	bbox := model.BBox{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	for i, p := range lap.Points {
		polyline[i] = model.Point2{X: p.X, Y: p.Y}
		bbox.MinX = math.Min(bbox.MinX, p.X)
		bbox.MaxX = math.Max(bbox.MaxX, p.X)
		bbox.MinY = math.Min(bbox.MinY, p.Y)
		bbox.MaxY = math.Max(bbox.MaxY, p.Y)
	}

	curv := CurvatureSeries(lap.Points)
	peaks := PeakIndices(curv, 12, 0.03)

	corners := make([]model.CornerLabel, len(peaks))
	for i, idx := range peaks {
		corners[i] = model.CornerLabel{
			Index: uint32(i + 1),
			X:     lap.Points[idx].X,
			Y:     lap.Points[idx].Y,
		}
	}

	return model.TrackMap{
		Polyline: polyline,
		Corners:  corners,
		Sectors:  AutoSectors(lap, curv, 3),
		BBox:     bbox,
	}, nil
}

// PerCornerMetrics computes braking/throttle/apex metrics for every detected
// curvature peak in the reference lap.
func PerCornerMetrics(reference *model.Lap) ([]model.Corner, error) {
	if reference == nil || len(reference.Points) == 0 {
		return nil, ErrEmptyInput
	}
	points := reference.Points
	n := len(points)
	curv := CurvatureSeries(points)
	peaks := PeakIndices(curv, 12, 0.03)

	const window = 20
	corners := make([]model.Corner, 0, len(peaks))
	for i, idx := range peaks {
		start := idx - window
		if start < 0 {
			start = 0
		}
		end := idx + window
		if end > n-1 {
			end = n - 1
		}

		apex := points[idx]
		minSpeed := points[start].SpeedKph
		for k := start; k <= end; k++ {
			if points[k].SpeedKph < minSpeed {
				minSpeed = points[k].SpeedKph
			}
		}

		brakePointM := apex.LapDistanceM
		for k := idx - 1; k >= start; k-- {
			if points[k].Brake > 0.2 {
				brakePointM = points[k].LapDistanceM
			}
		}

		throttleOnM := apex.LapDistanceM
		for k := idx; k <= end; k++ {
			if points[k].Throttle > 0.6 {
				throttleOnM = points[k].LapDistanceM
				break
			}
		}

		corners = append(corners, model.Corner{
			Index:       uint32(i + 1),
			StartM:      points[start].LapDistanceM,
			ApexM:       apex.LapDistanceM,
			EndM:        points[end].LapDistanceM,
			X:           apex.X,
			Y:           apex.Y,
			MinSpeed:    minSpeed,
			EntrySpeed:  points[start].SpeedKph,
			ExitSpeed:   points[end].SpeedKph,
			BrakePointM: brakePointM,
			ThrottleOnM: throttleOnM,
		})
	}
	return corners, nil
}

// Thirds splits a lap's points into three consecutive chunks (n/3 width,
// the last chunk absorbing any remainder) and returns the elapsed time in
// milliseconds spanned by each.
func Thirds(lap *model.Lap) [3]float64 {
	n := len(lap.Points)
	if n == 0 {
		n = 1
	}
	segWidth := n / 3
	var out [3]float64
	for i := 0; i < 3; i++ {
		a := i * segWidth
		var b int
		if i == 2 {
			b = n - 1
		} else {
			b = (i + 1) * segWidth
			if b > n-1 {
				b = n - 1
			}
		}
		if a >= len(lap.Points) || b >= len(lap.Points) {
			out[i] = 0
			continue
		}
		t := lap.Points[b].TMs - lap.Points[a].TMs
		if t < 0 {
			t = 0
		}
		out[i] = t
	}
	return out
}

// LapSummary aggregates best/worst/average total time and a consistency
// score (population standard deviation, in seconds, of every lap's
// third-times pooled together) across laps.
func LapSummary(laps []*model.Lap) (model.LapSummary, error) {
	if len(laps) == 0 {
		return model.LapSummary{}, ErrEmptyInput
	}

	best := laps[0].TotalTimeMs
	worst := laps[0].TotalTimeMs
	var sum uint64
	var allThirds []float64
	for _, lap := range laps {
		if lap.TotalTimeMs < best {
			best = lap.TotalTimeMs
		}
		if lap.TotalTimeMs > worst {
			worst = lap.TotalTimeMs
		}
		sum += lap.TotalTimeMs

		thirds := Thirds(lap)
		allThirds = append(allThirds, thirds[0], thirds[1], thirds[2])
	}
	avg := float64(sum) / float64(len(laps))

	consistency := stat.PopStdDev(allThirds, nil) / 1000.0

	return model.LapSummary{
		BestMs:      best,
		WorstMs:     worst,
		AvgMs:       avg,
		Consistency: consistency,
	}, nil
}
