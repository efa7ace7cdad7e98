package expiry

import (
	"context"
	"time"

	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// Scheduler runs a Scanner on a fixed interval.
type Scheduler struct {
	scanner  *Scanner
	interval time.Duration
	onResult func(*ScanResult)
}

// NewScheduler creates a Scheduler. onResult may be nil.
func NewScheduler(scanner *Scanner, interval time.Duration, onResult func(*ScanResult)) *Scheduler {
	return &Scheduler{scanner: scanner, interval: interval, onResult: onResult}
}

// Run scans every interval until ctx is cancelled. A non-positive interval returns immediately.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	common.LogInfo("expiry scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			common.LogInfo("expiry scheduler stopped")
			return
		case <-ticker.C:
			res, err := s.scanner.Scan(ctx)
			if err != nil {
				common.LogWarn("scheduled expiry scan failed", zap.Error(err))
				continue
			}
			if s.onResult != nil {
				s.onResult(res)
			}
		}
	}
}
