// Package export is the CSV/NDJSON/MoTeC-CSV serializer over the data
// model. The core session logic doesn't depend on it, but round-trip
// precision is a testable property of the system, so it is implemented
// here rather than left as an interface stub.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/psybedev/delta/model"
)

// ErrUnsupportedKind marks an export kind or import extension the
// serializer doesn't recognise. Per the error taxonomy this is a
// configuration error: surfaced to the caller, no state mutated.
type ErrUnsupportedKind struct {
	Kind string
}

func (e *ErrUnsupportedKind) Error() string {
	return fmt.Sprintf("export: unsupported kind %q", e.Kind)
}

var csvHeader = []string{
	"game", "car", "track", "lap_number",
	"t_ms", "lap_distance_m", "x", "y", "speed_kph",
	"throttle", "brake", "gear", "rpm",
}

// Write dispatches to the serializer named by kind.
func Write(kind, path string, laps []*model.Lap) error {
	switch kind {
	case "csv":
		return WriteCSV(laps, path)
	case "ndjson":
		return WriteNDJSON(laps, path)
	case "motec_csv":
		return WriteMotecCSV(laps, path)
	default:
		return &ErrUnsupportedKind{Kind: kind}
	}
}

// ImportAuto dispatches to CSV or NDJSON based on path's extension.
func ImportAuto(path string) ([]*model.Lap, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ImportCSV(path)
	case ".ndjson":
		return ImportNDJSON(path)
	default:
		return nil, &ErrUnsupportedKind{Kind: filepath.Ext(path)}
	}
}

// WriteCSV serializes every lap's points as flat rows, one per point, with
// the textual precision the round-trip property names: t_ms to 6 decimals,
// distances to 3, coordinates to 4, speed/throttle/brake to 3, rpm to 1.
func WriteCSV(laps []*model.Lap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, lap := range laps {
		for _, p := range lap.Points {
			row := []string{
				lap.Meta.Game,
				lap.Meta.Car,
				lap.Meta.Track,
				strconv.FormatUint(uint64(lap.Meta.LapNumber), 10),
				strconv.FormatFloat(p.TMs, 'f', 6, 64),
				strconv.FormatFloat(p.LapDistanceM, 'f', 3, 64),
				strconv.FormatFloat(p.X, 'f', 4, 64),
				strconv.FormatFloat(p.Y, 'f', 4, 64),
				strconv.FormatFloat(p.SpeedKph, 'f', 3, 64),
				strconv.FormatFloat(p.Throttle, 'f', 3, 64),
				strconv.FormatFloat(p.Brake, 'f', 3, 64),
				strconv.FormatInt(int64(p.Gear), 10),
				strconv.FormatFloat(p.RPM, 'f', 1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// ImportCSV reconstructs laps from a file written by WriteCSV, starting a
// new lap every time lap_number changes from the previous row -- mirroring
// the grouping rule the original importer used.
func ImportCSV(path string) ([]*model.Lap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	records = records[1:] // header

	var laps []*model.Lap
	var current *model.Lap
	var currentLapNum uint32
	haveCurrent := false

	for _, rec := range records {
		lapNumber64, _ := strconv.ParseUint(rec[3], 10, 32)
		lapNumber := uint32(lapNumber64)

		if !haveCurrent || lapNumber != currentLapNum {
			if current != nil {
				laps = append(laps, current)
			}
			current = model.NewLap(rec[0], rec[1], rec[2], lapNumber)
			currentLapNum = lapNumber
			haveCurrent = true
		}

		tMs, _ := strconv.ParseFloat(rec[4], 64)
		lapDist, _ := strconv.ParseFloat(rec[5], 64)
		x, _ := strconv.ParseFloat(rec[6], 64)
		y, _ := strconv.ParseFloat(rec[7], 64)
		speed, _ := strconv.ParseFloat(rec[8], 64)
		throttle, _ := strconv.ParseFloat(rec[9], 64)
		brake, _ := strconv.ParseFloat(rec[10], 64)
		gear64, _ := strconv.ParseInt(rec[11], 10, 8)
		rpm, _ := strconv.ParseFloat(rec[12], 64)

		current.Points = append(current.Points, model.TelemetryPoint{
			TMs: tMs, LapDistanceM: lapDist, X: x, Y: y, SpeedKph: speed,
			Throttle: throttle, Brake: brake, Gear: int8(gear64), RPM: rpm,
		})
		current.TotalTimeMs = uint64(tMs - current.Points[0].TMs)
	}
	if current != nil {
		laps = append(laps, current)
	}
	return laps, nil
}

// WriteNDJSON writes one JSON-encoded Lap per line. Go's encoding/json
// formats float64 with the shortest representation that round-trips
// exactly, so this preserves points bit-for-bit rather than merely to a
// fixed number of decimals.
func WriteNDJSON(laps []*model.Lap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, lap := range laps {
		if err := enc.Encode(lap); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ImportNDJSON decodes one Lap per line, preserving the ids written by
// WriteNDJSON.
func ImportNDJSON(path string) ([]*model.Lap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var laps []*model.Lap
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var lap model.Lap
		if err := dec.Decode(&lap); err != nil {
			return nil, err
		}
		if lap.ID == uuid.Nil {
			lap.ID = uuid.New()
		}
		laps = append(laps, &lap)
	}
	return laps, nil
}

// WriteMotecCSV writes the MoTeC-flavoured flat CSV: time is relative to
// each lap's first point and expressed in seconds, matching the column
// layout and precision of the original exporter.
func WriteMotecCSV(laps []*model.Lap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Time", "LapDistance", "X", "Y", "Speed", "Throttle", "Brake", "Gear", "RPM", "LapNumber", "Track", "Car", "Game"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, lap := range laps {
		var t0 float64
		if len(lap.Points) > 0 {
			t0 = lap.Points[0].TMs
		}
		for _, p := range lap.Points {
			row := []string{
				strconv.FormatFloat((p.TMs-t0)/1000.0, 'f', 6, 64),
				strconv.FormatFloat(p.LapDistanceM, 'f', 3, 64),
				strconv.FormatFloat(p.X, 'f', 4, 64),
				strconv.FormatFloat(p.Y, 'f', 4, 64),
				strconv.FormatFloat(p.SpeedKph, 'f', 3, 64),
				strconv.FormatFloat(p.Throttle, 'f', 3, 64),
				strconv.FormatFloat(p.Brake, 'f', 3, 64),
				strconv.FormatInt(int64(p.Gear), 10),
				strconv.FormatFloat(p.RPM, 'f', 1, 64),
				strconv.FormatUint(uint64(lap.Meta.LapNumber), 10),
				lap.Meta.Track,
				lap.Meta.Car,
				lap.Meta.Game,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
