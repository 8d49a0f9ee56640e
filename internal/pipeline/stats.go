package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// Stats tracks aggregate pipeline counters. The pipeline runs on a single
// worker, so plain fields are sufficient; add a mutex before introducing
// parallel workers.
type Stats struct {
	Processed   uint64
	Stored      uint64
	Registered  uint64
	Resubmitted uint64
	Errored     uint64
	StartTime   time.Time
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now().UTC()}
}

// Log emits the aggregate counters.
func (s *Stats) Log(logger *zap.Logger) {
	logger.Info("pipeline stats",
		zap.Duration("runtime", time.Since(s.StartTime)),
		zap.Uint64("processed", s.Processed),
		zap.Uint64("stored", s.Stored),
		zap.Uint64("registered", s.Registered),
		zap.Uint64("resubmitted", s.Resubmitted),
		zap.Uint64("errored", s.Errored),
	)
}
