// Package model defines the normalized telemetry types shared across every
// ingest adapter, the lap builder, the analysis kernel, and the import/export
// serializers. Nothing in this package touches a socket, a file, or a mapping
// handle; it is the single vocabulary the rest of the module agrees on.
package model

import (
	"github.com/google/uuid"
)

// Game identifies the driving-sim source a TelemetrySample originated from.
type Game string

const (
	GameF1_2024 Game = "F1-2024"
	GameF1_2025 Game = "F1-2025"
	GameGT7     Game = "GT7"
	GameLMU     Game = "LMU"
	GameIRacing Game = "iRacing"
)

// TelemetrySample is a single instant of the player's car, as produced by a
// source adapter. Fields that a given protocol doesn't expose are left at
// their zero value (lap_distance_m, current_lap and the lap timers, most
// often for GT7).
type TelemetrySample struct {
	Game       Game
	CarID      string
	SessionUID string
	Frame      uint64
	SimTimeS   float64

	SpeedMPS  float64
	Throttle  float64
	Brake     float64
	Gear      int8
	EngineRPM float64

	WorldPosX float64
	WorldPosY float64
	WorldPosZ float64
	Yaw       float64
	Pitch     float64
	Roll      float64

	LapDistanceM     float64
	CurrentLap       uint32
	CurrentLapTimeS  float64
	LastLapTimeS     float64
}

// TelemetryPoint is a TelemetrySample reduced to the fields a Lap persists,
// in track frame rather than world frame. JSON tags follow the NDJSON
// exporter's wire names, so a Lap round-trips without a translation layer.
type TelemetryPoint struct {
	TMs          float64 `json:"t_ms"`
	LapDistanceM float64 `json:"lap_distance_m"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	SpeedKph     float64 `json:"speed_kph"`
	Throttle     float64 `json:"throttle"`
	Brake        float64 `json:"brake"`
	Gear         int8    `json:"gear"`
	RPM          float64 `json:"rpm"`
}

// LapMeta identifies a lap's provenance.
type LapMeta struct {
	ID        uuid.UUID `json:"id"`
	Game      string    `json:"game"`
	Car       string    `json:"car"`
	Track     string    `json:"track"`
	LapNumber uint32    `json:"lap_number"`
}

// Lap is a closed recording: once inserted into a Lap Store it is never
// mutated again.
type Lap struct {
	ID          uuid.UUID        `json:"id"`
	Meta        LapMeta          `json:"meta"`
	TotalTimeMs uint64           `json:"total_time_ms"`
	Points      []TelemetryPoint `json:"points"`
}

// NewLap allocates a lap shell with a fresh id; callers append points and set
// TotalTimeMs as samples arrive.
func NewLap(game, car, track string, lapNumber uint32) *Lap {
	id := uuid.New()
	return &Lap{
		ID: id,
		Meta: LapMeta{
			ID:        id,
			Game:      game,
			Car:       car,
			Track:     track,
			LapNumber: lapNumber,
		},
		Points: make([]TelemetryPoint, 0, 256),
	}
}

// Point2 is a bare 2D coordinate, used by the analysis kernel's geometry
// helpers where a full TelemetryPoint would be more than is needed.
type Point2 struct {
	X float64
	Y float64
}

// BBox is an axis-aligned bounding box over a polyline.
type BBox struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

// CornerLabel is the lightweight corner reference carried on a TrackMap.
type CornerLabel struct {
	Index uint32
	X     float64
	Y     float64
}

// Sector is a disjoint distance interval along a lap.
type Sector struct {
	StartM float64
	EndM   float64
}

// TrackMap is the derived geometry for a reference lap.
type TrackMap struct {
	Polyline []Point2
	Corners  []CornerLabel
	Sectors  []Sector
	BBox     BBox
}

// Corner is the fuller per-corner record produced by per-corner-metrics,
// distinct from the CornerLabel embedded in a TrackMap.
type Corner struct {
	Index        uint32
	StartM       float64
	ApexM        float64
	EndM         float64
	X            float64
	Y            float64
	MinSpeed     float64
	EntrySpeed   float64
	ExitSpeed    float64
	BrakePointM  float64
	ThrottleOnM  float64
}

// LapSummary aggregates best/worst/average lap time and a consistency score
// across a set of laps.
type LapSummary struct {
	BestMs      uint64
	WorstMs     uint64
	AvgMs       float64
	Consistency float64
}
