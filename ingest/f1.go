package ingest

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"

	"github.com/psybedev/delta/model"
)

// F1Config configures the F1 adapter.
type F1Config struct {
	BindAddr       string // e.g. "0.0.0.0:20777"
	ExpectedFormat int    // 2024 or 2025; informational, the wire packet_format field wins
}

// DefaultF1Config matches the documented default port.
func DefaultF1Config() F1Config {
	return F1Config{BindAddr: "0.0.0.0:20777", ExpectedFormat: 2025}
}

const (
	f1HeaderBase          = 24
	f1StrideMotion        = 1464
	f1StrideLapData       = 51
	f1StrideCarTelemetry  = 58
	f1PacketMotion        = 0
	f1PacketLapData       = 2
	f1PacketCarTelemetry  = 6
)

// f1PlayerState is the per-car latest-values buffer the adapter combines
// incrementally across Motion/LapData/CarTelemetry packets. Earlier
// reimplementations kept this as a process-wide singleton, which meant two
// concurrent F1 sessions clobbered each other's state; here it is owned by
// the F1Source instance so multiple adapters can run side by side.
type f1PlayerState struct {
	worldPosX, worldPosY, worldPosZ float64
	yaw, pitch, roll                float64
	speedMPS                        float64
	throttle, brake                 float64
	gear                            int8
	rpm                             float64
	lapDistance                     float64
	currentLap                      uint32
	currentLapTimeS                 float64
	lastLapTimeS                    float64
	frame                           uint64
}

// F1Source is the UDP source adapter for Codemasters F1 2024/2025 telemetry.
type F1Source struct {
	cfg   F1Config
	state f1PlayerState
}

// NewF1Source constructs an adapter bound to cfg. It does not open the
// socket until Run is called.
func NewF1Source(cfg F1Config) *F1Source {
	return &F1Source{cfg: cfg}
}

// Run binds a UDP server and decodes datagrams into samples until ctx is
// cancelled, the channel's receiver closes, or the socket errors.
func (s *F1Source) Run(ctx context.Context, ch *SampleChannel) error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.BindAddr)
	if err != nil {
		return &ConfigError{Msg: fmt.Sprintf("f1: resolve bind address %q: %v", s.cfg.BindAddr, err)}
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return &FatalError{Adapter: "f1", Err: fmt.Errorf("bind %s: %w", s.cfg.BindAddr, err)}
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &FatalError{Adapter: "f1", Err: err}
		}
		if n < 32 {
			continue // transient: short datagram, drop silently
		}
		sample, ok := s.parsePacket(buf[:n])
		if !ok {
			continue
		}
		if err := ch.Send(sample); err != nil {
			return nil // receiver closed: cooperative shutdown
		}
	}
}

// parsePacket decodes one Codemasters datagram, updating the adapter's
// latest-values buffer and returning a fresh sample reflecting it.
func (s *F1Source) parsePacket(buf []byte) (model.TelemetrySample, bool) {
	if len(buf) < f1HeaderBase {
		return model.TelemetrySample{}, false
	}
	packetFormat := binary.LittleEndian.Uint16(buf[0:2])
	packetID := buf[6]
	sessionUID := binary.LittleEndian.Uint64(buf[7:15])
	sessionTime := float32FromLE(buf[15:19])
	overallFrame := binary.LittleEndian.Uint32(buf[23:27])
	playerCarIndex := int(buf[27])

	st := &s.state

	switch packetID {
	case f1PacketMotion:
		start := f1HeaderBase + playerCarIndex*f1StrideMotion
		if len(buf) >= start+64 {
			st.worldPosX = float64(float32FromLE(buf[start : start+4]))
			st.worldPosY = float64(float32FromLE(buf[start+4 : start+8]))
			st.worldPosZ = float64(float32FromLE(buf[start+8 : start+12]))
			// skip seven f32 (velocities/angular velocities) to reach orientation
			o := start + 12 + 7*4
			st.yaw = float64(float32FromLE(buf[o : o+4]))
			st.pitch = float64(float32FromLE(buf[o+4 : o+8]))
			st.roll = float64(float32FromLE(buf[o+8 : o+12]))
		}
	case f1PacketLapData:
		start := f1HeaderBase + playerCarIndex*f1StrideLapData
		if len(buf) >= start+0x1c+4 {
			st.lapDistance = float64(float32FromLE(buf[start+0x14 : start+0x18]))
			st.currentLapTimeS = float64(float32FromLE(buf[start+0x18 : start+0x1c]))
			st.lastLapTimeS = float64(float32FromLE(buf[start+0x1c : start+0x20]))
		}
		lapNumOff := start + 0x10
		if len(buf) > lapNumOff {
			st.currentLap = uint32(buf[lapNumOff])
		}
	case f1PacketCarTelemetry:
		start := f1HeaderBase + playerCarIndex*f1StrideCarTelemetry
		if len(buf) >= start+9 {
			speedKph := float64(binary.LittleEndian.Uint16(buf[start : start+2]))
			st.speedMPS = speedKph / 3.6
			st.throttle = float64(buf[start+2]) / 255.0
			// buf[start+3] is steer:i8, skipped
			st.brake = float64(buf[start+4]) / 255.0
			// buf[start+5] is clutch:u8, skipped
			st.gear = int8(buf[start+6])
			st.rpm = float64(binary.LittleEndian.Uint16(buf[start+7 : start+9]))
		}
	default:
		// unrecognised packet id: ignore, state unchanged
	}

	st.frame = uint64(overallFrame)

	game := model.GameF1_2024
	if packetFormat >= 2025 {
		game = model.GameF1_2025
	}

	return model.TelemetrySample{
		Game:            game,
		CarID:           fmt.Sprintf("player:%d", playerCarIndex),
		SessionUID:      fmt.Sprintf("%d", sessionUID),
		Frame:           st.frame,
		SimTimeS:        float64(sessionTime),
		SpeedMPS:        st.speedMPS,
		Throttle:        SanitizeUnit(st.throttle),
		Brake:           SanitizeUnit(st.brake),
		Gear:            st.gear,
		EngineRPM:       st.rpm,
		WorldPosX:       st.worldPosX,
		WorldPosY:       st.worldPosY,
		WorldPosZ:       st.worldPosZ,
		Yaw:             st.yaw,
		Pitch:           st.pitch,
		Roll:            st.roll,
		LapDistanceM:    st.lapDistance,
		CurrentLap:      st.currentLap,
		CurrentLapTimeS: st.currentLapTimeS,
		LastLapTimeS:    st.lastLapTimeS,
	}, true
}

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
