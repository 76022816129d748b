//go:build !windows

package ingest

import (
	"context"
	"fmt"
	"runtime"
)

// LMUSource is unavailable on platforms without named shared memory. Start
// fails with a platform-not-supported configuration error rather than
// silently doing nothing.
type LMUSource struct{}

// NewLMUSource returns a stand-in adapter whose Run always fails.
func NewLMUSource() *LMUSource { return &LMUSource{} }

// Run always returns a configuration error on non-Windows platforms.
func (s *LMUSource) Run(ctx context.Context, ch *SampleChannel) error {
	return &ConfigError{Msg: fmt.Sprintf("lmu: named shared memory is not available on %s", runtime.GOOS)}
}
