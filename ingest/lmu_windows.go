//go:build windows

package ingest

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/psybedev/delta/model"
	"golang.org/x/sys/windows"
)

const lmuMappingName = "$rFactor2SMMP_Telemetry$"

// LMUSource polls the named shared memory view published by the
// rF2SharedMemoryMapPlugin at ~50 Hz.
type LMUSource struct {
	validation ValidationConfig
}

// NewLMUSource constructs an adapter using LMU's widened gear bound.
func NewLMUSource() *LMUSource {
	return &LMUSource{validation: lmuValidationConfig()}
}

// Run opens the mapping, polls it on a 20ms ticker (missed ticks skipped),
// and publishes one sample per accepted read until ctx is cancelled.
func (s *LMUSource) Run(ctx context.Context, ch *SampleChannel) error {
	handle, err := windows.OpenFileMapping(windows.FILE_MAP_READ, false, lmuMappingName)
	if err != nil {
		return &FatalError{Adapter: "lmu", Err: fmt.Errorf("%s mapping not found. Ensure rF2SharedMemoryMapPlugin is installed: %w", lmuMappingName, err)}
	}
	defer windows.CloseHandle(handle)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sample, ok, err := s.readOnce(handle)
			if err != nil {
				return &FatalError{Adapter: "lmu", Err: err}
			}
			if !ok {
				continue // transient: torn or out-of-range read, skip
			}
			if sendErr := ch.Send(sample); sendErr != nil {
				return nil // receiver closed: cooperative shutdown
			}
		}
	}
}

// readOnce maps a view sized to RF2Telemetry, copies it out immediately so
// no code ever dereferences memory after UnmapViewOfFile, and validates the
// copy before converting it to a sample.
func (s *LMUSource) readOnce(handle windows.Handle) (sample model.TelemetrySample, ok bool, err error) {
	ptr, mapErr := windows.MapViewOfFile(handle, windows.FILE_MAP_READ, 0, 0, unsafe.Sizeof(RF2Telemetry{}))
	if mapErr != nil {
		return model.TelemetrySample{}, false, mapErr
	}
	defer windows.UnmapViewOfFile(ptr)

	view := (*RF2Telemetry)(unsafe.Pointer(ptr))
	snapshot := *view // copy out before the deferred unmap runs

	if !snapshot.validate(s.validation) {
		return model.TelemetrySample{}, false, nil
	}
	return snapshot.toSample(), true, nil
}
