package ingest

import "testing"

func baseTelemetry() RF2Telemetry {
	return RF2Telemetry{
		VersionUpdateBegin: 7,
		VersionUpdateEnd:   7,
		Throttle:           0.5,
		Brake:              0.2,
		Gear:               3,
		Speed:              -1, // not preferred: forces fallback to velocity magnitude
		LocalVelX:           3,
		LocalVelY:           4,
		LocalVelZ:           0,
	}
}

func TestRF2Telemetry_ValidateTornRead(t *testing.T) {
	tel := baseTelemetry()
	tel.VersionUpdateEnd = 8
	if tel.validate(lmuValidationConfig()) {
		t.Error("mismatched version_update_begin/end should fail validation")
	}
}

func TestRF2Telemetry_ValidateThrottleOutOfRange(t *testing.T) {
	tel := baseTelemetry()
	tel.Throttle = 1.5
	if tel.validate(lmuValidationConfig()) {
		t.Error("throttle=1.5 should fail validation")
	}
}

func TestRF2Telemetry_ValidateGearWidenedRange(t *testing.T) {
	tel := baseTelemetry()
	tel.Gear = 10
	if !tel.validate(lmuValidationConfig()) {
		t.Error("gear=10 is within the LMU-widened [-1,12] range and should validate")
	}
	tel.Gear = 13
	if tel.validate(lmuValidationConfig()) {
		t.Error("gear=13 is outside [-1,12] and should fail validation")
	}
}

func TestRF2Telemetry_ToSample_SpeedFallsBackToVelocityMagnitude(t *testing.T) {
	tel := baseTelemetry()
	sample := tel.toSample()
	if !floatEquals(sample.SpeedMPS, 5.0, 1e-6) { // |(3,4,0)| == 5
		t.Errorf("speed_mps = %v, want 5 (magnitude of local velocity)", sample.SpeedMPS)
	}
}

func TestRF2Telemetry_ToSample_PrefersMSpeedWhenValid(t *testing.T) {
	tel := baseTelemetry()
	tel.Speed = 42
	sample := tel.toSample()
	if !floatEquals(sample.SpeedMPS, 42, 1e-6) {
		t.Errorf("speed_mps = %v, want 42 (preferred mSpeed)", sample.SpeedMPS)
	}
}

func TestRF2Telemetry_ToSample_CurrentLapTimeClampedAtZero(t *testing.T) {
	tel := baseTelemetry()
	tel.ElapsedTime = 5
	tel.LapStartET = 8 // elapsed before lap start: should clamp to 0, not go negative
	sample := tel.toSample()
	if sample.CurrentLapTimeS != 0 {
		t.Errorf("current_lap_time_s = %v, want 0", sample.CurrentLapTimeS)
	}
}
