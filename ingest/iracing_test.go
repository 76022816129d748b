package ingest

import "testing"

func TestNewIRacingSourceDefaultsPollInterval(t *testing.T) {
	s := NewIRacingSource(IRacingConfig{})
	if s.cfg.PollInterval != DefaultIRacingConfig().PollInterval {
		t.Errorf("PollInterval = %v, want default %v", s.cfg.PollInterval, DefaultIRacingConfig().PollInterval)
	}
}

func TestNewIRacingSourceKeepsExplicitPollInterval(t *testing.T) {
	s := NewIRacingSource(IRacingConfig{PollInterval: 33})
	if s.cfg.PollInterval != 33 {
		t.Errorf("PollInterval = %v, want 33", s.cfg.PollInterval)
	}
}
