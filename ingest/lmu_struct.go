package ingest

import (
	"math"

	"github.com/psybedev/delta/model"
)

// LMUWheelTelemetry is one of the four per-wheel blocks in RF2Telemetry.
// The rollover/validation rules the adapter applies never touch wheel data,
// so only a representative subset of the real rF2SharedMemoryMapPlugin
// wheel layout is reproduced here.
type LMUWheelTelemetry struct {
	RotationRad         float32
	SuspensionDeflection float32
	RideHeight          float32
	TireLoad            float32
	LateralForce        float32
	BrakeTemp           float32
	PressureKPa         float32
	TemperatureInner    float32
	TemperatureMiddle   float32
	TemperatureOuter    float32
	Wear                float32
	Flags               int32
}

// RF2Telemetry is the C-compatible, packed-in-source-order layout of the
// "$rFactor2SMMP_Telemetry$" shared memory view.
type RF2Telemetry struct {
	VersionUpdateBegin uint32

	LocalVelX, LocalVelY, LocalVelZ       float32
	LocalAccelX, LocalAccelY, LocalAccelZ float32
	LocalRotX, LocalRotY, LocalRotZ       float32
	LocalRotAccelX, LocalRotAccelY, LocalRotAccelZ float32

	OriPitch, OriYaw, OriRoll float32
	PosX, PosY, PosZ          float32

	RPM       float32
	MaxRPM    float32
	Throttle  float32
	Brake     float32
	Clutch    float32
	Steering  float32
	Gear      int32
	GearEngaged int32
	Speed     float32

	LapDist     float32
	LapNumber   uint32
	LapStartET  float32
	ElapsedTime float32
	LastLapTime float32

	Wheels [4]LMUWheelTelemetry

	Reserved [64]byte

	VersionUpdateEnd uint32
}

// validate reports whether a read is torn or out of documented bounds and
// should be skipped rather than published as a sample.
func (t *RF2Telemetry) validate(cfg ValidationConfig) bool {
	if t.VersionUpdateBegin != t.VersionUpdateEnd {
		return false
	}
	if !InRange(float64(t.Throttle), cfg.MinThrottle, cfg.MaxThrottle) {
		return false
	}
	if !InRange(float64(t.Brake), cfg.MinBrake, cfg.MaxBrake) {
		return false
	}
	if t.Gear < int32(cfg.MinGear) || t.Gear > int32(cfg.MaxGear) {
		return false
	}
	if !FiniteInRange(float64(t.LocalVelX), cfg.MaxLocalSpeed) ||
		!FiniteInRange(float64(t.LocalVelY), cfg.MaxLocalSpeed) ||
		!FiniteInRange(float64(t.LocalVelZ), cfg.MaxLocalSpeed) {
		return false
	}
	return true
}

// lmuValidationConfig widens the gear bound to the LMU-specific [-1,12]
// range, versus the [-1,8] default.
func lmuValidationConfig() ValidationConfig {
	cfg := DefaultValidationConfig()
	cfg.MaxGear = 12
	return cfg
}

// toSample converts an accepted read into a normalized TelemetrySample.
func (t *RF2Telemetry) toSample() model.TelemetrySample {
	speed := float64(t.Speed)
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed < 0 {
		speed = math.Sqrt(float64(t.LocalVelX)*float64(t.LocalVelX) +
			float64(t.LocalVelY)*float64(t.LocalVelY) +
			float64(t.LocalVelZ)*float64(t.LocalVelZ))
	}

	currentLapTimeS := float64(t.ElapsedTime) - float64(t.LapStartET)
	if currentLapTimeS < 0 {
		currentLapTimeS = 0
	}

	return model.TelemetrySample{
		Game:            model.GameLMU,
		CarID:           "player",
		SessionUID:      "lmu",
		SimTimeS:        float64(t.ElapsedTime),
		SpeedMPS:        speed,
		Throttle:        SanitizeUnit(float64(t.Throttle)),
		Brake:           SanitizeUnit(float64(t.Brake)),
		Gear:            int8(t.Gear),
		EngineRPM:       float64(t.RPM),
		WorldPosX:       float64(t.PosX),
		WorldPosY:       float64(t.PosY),
		WorldPosZ:       float64(t.PosZ),
		Yaw:             float64(t.OriYaw),
		Pitch:           float64(t.OriPitch),
		Roll:            float64(t.OriRoll),
		LapDistanceM:    float64(t.LapDist),
		CurrentLap:      t.LapNumber,
		CurrentLapTimeS: currentLapTimeS,
		LastLapTimeS:    float64(t.LastLapTime),
	}
}
