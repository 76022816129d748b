package analysis

import (
	"math"
	"sort"

	"github.com/psybedev/delta/model"
)

const minCurvatureDenominator = 1e-6

// CurvatureSeries computes a central-difference, cross-product curvature
// estimate for each interior point of a polyline, then smooths it with a
// 5-wide centered moving average. Endpoints are zero.
func CurvatureSeries(points []model.TelemetryPoint) []float64 {
	n := len(points)
	raw := make([]float64, n)
	if n < 3 {
		return raw
	}
	for i := 1; i < n-1; i++ {
		d1x := points[i].X - points[i-1].X
		d1y := points[i].Y - points[i-1].Y
		d2x := points[i+1].X - points[i].X
		d2y := points[i+1].Y - points[i].Y

		cross := math.Abs(d1x*d2y - d1y*d2x)
		len1 := math.Hypot(d1x, d1y)
		len2 := math.Hypot(d2x, d2y)
		lenSum := math.Hypot(d1x+d2x, d1y+d2y)

		denom := math.Max(minCurvatureDenominator, len1*len2*lenSum)
		raw[i] = cross / denom
	}
	return smooth5(raw)
}

// smooth5 applies a 5-wide centered moving average over window [i-2, i+3)
// clipped to the valid range.
func smooth5(v []float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - 2
		if lo < 0 {
			lo = 0
		}
		hi := i + 3
		if hi > n {
			hi = n
		}
		sum := 0.0
		for k := lo; k < hi; k++ {
			sum += v[k]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// PeakIndices finds local maxima in curv via non-max suppression: index i is
// a peak if curv[i] >= threshold and no other index within [i-window,i+window)
// strictly exceeds it. An earlier index with an equal value also suppresses
// i, so ties within the window retain the earlier index as the peak.
func PeakIndices(curv []float64, window int, threshold float64) []int {
	n := len(curv)
	if n == 0 || window == 0 || n <= 2*window {
		return nil
	}
	var peaks []int
	for i := window; i < n-window; i++ {
		if curv[i] < threshold {
			continue
		}
		isPeak := true
		for k := i - window; k < i+window; k++ {
			if curv[k] > curv[i] || (k < i && curv[k] == curv[i]) {
				isPeak = false
				break
			}
		}
		if isPeak {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// AutoSectors selects n-1 distance boundaries at the highest-curvature
// points in the lap and brackets them with the lap's first and last point
// distances, producing n consecutive, non-overlapping sectors.
func AutoSectors(lap *model.Lap, curv []float64, n int) []model.Sector {
	if len(lap.Points) == 0 || n <= 0 {
		return nil
	}
	type idxVal struct {
		idx int
		val float64
	}
	ranked := make([]idxVal, len(curv))
	for i, v := range curv {
		ranked[i] = idxVal{i, v}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].val > ranked[b].val })

	take := n - 1
	if take > len(ranked) {
		take = len(ranked)
	}
	selected := make([]int, 0, take)
	for i := 0; i < take; i++ {
		selected = append(selected, ranked[i].idx)
	}
	sort.Ints(selected)
	selected = dedupInts(selected)

	distances := make([]float64, 0, len(selected)+2)
	distances = append(distances, lap.Points[0].LapDistanceM)
	for _, idx := range selected {
		distances = append(distances, lap.Points[idx].LapDistanceM)
	}
	distances = append(distances, lap.Points[len(lap.Points)-1].LapDistanceM)

	sectors := make([]model.Sector, 0, len(distances)-1)
	for i := 0; i < len(distances)-1; i++ {
		sectors = append(sectors, model.Sector{StartM: distances[i], EndM: distances[i+1]})
	}
	return sectors
}

func dedupInts(v []int) []int {
	if len(v) == 0 {
		return v
	}
	out := v[:1]
	for _, x := range v[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
