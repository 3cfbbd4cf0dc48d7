package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the background sweep scans for lapsed orders.
const DefaultSweepInterval = time.Hour

// ExpirySweeper periodically persists the expired status for active orders
// whose payment window has lapsed. Reads already derive expiry on the fly;
// the sweep only settles the stored records.
type ExpirySweeper struct {
	orders   OrderService
	interval time.Duration
	logger   *zap.Logger
}

// NewExpirySweeper constructs a sweeper around the order service.
func NewExpirySweeper(orders OrderService, interval time.Duration, logger *zap.Logger) (*ExpirySweeper, error) {
	if orders == nil {
		return nil, errors.New("expiry sweeper: order service is required")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweeper{orders: orders, interval: interval, logger: logger}, nil
}

// Run blocks until ctx is cancelled, sweeping once per interval. Each pass
// runs under its own timeout so a slow backend cannot stall the loop.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	transitioned, err := s.orders.SweepExpired(runCtx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if transitioned > 0 {
		s.logger.Info("expiry sweep settled orders", zap.Int("count", transitioned))
	}
}
