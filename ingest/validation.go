package ingest

import "math"

// ValidationConfig bounds the scalar ranges a TelemetrySample's fields are
// allowed to occupy. The LMU adapter rejects a reading outright when it falls
// outside them. The UDP sources (F1, GT7) do not consult it: they clamp only
// throttle and brake into [0,1] (SanitizeUnit) and pass gear through as
// decoded, without checking it against a gear range.
type ValidationConfig struct {
	MinThrottle    float64
	MaxThrottle    float64
	MinBrake       float64
	MaxBrake       float64
	MinGear        int8
	MaxGear        int8
	MaxLocalSpeed  float64 // m/s bound used for LMU local-velocity components
}

// DefaultValidationConfig matches the ranges the telemetry data model names:
// throttle/brake in [0,1], gear in [-1,8]. Its only user is the LMU validate
// path, which widens the gear bound to [-1,12] (see lmuValidationConfig).
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinThrottle:   0,
		MaxThrottle:   1,
		MinBrake:      0,
		MaxBrake:      1,
		MinGear:       -1,
		MaxGear:       8,
		MaxLocalSpeed: 1000,
	}
}

// Clamp returns v bounded to [lo, hi], or lo when v is NaN/Inf. Used by the
// UDP adapters' best-effort sanitization pass.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SanitizeUnit clamps a [0,1] control input such as throttle or brake.
func SanitizeUnit(v float64) float64 {
	return Clamp(v, 0, 1)
}

// FiniteInRange reports whether v is neither NaN nor infinite and lies
// within [-bound, bound]. Used by the LMU adapter to validate local-velocity
// components before accepting a shared-memory read.
func FiniteInRange(v, bound float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= -bound && v <= bound
}

// InRange reports whether v falls within [lo, hi] inclusive.
func InRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
