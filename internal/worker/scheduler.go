package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the sweep on a fixed interval. An interval of zero pauses
// it until SetInterval provides a positive one.
type Scheduler struct {
	sweeper  SweepRunner
	interval time.Duration
	resets   chan time.Duration
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewScheduler(sweeper SweepRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		resets:   make(chan time.Duration, 1),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		defer close(s.done)

		var (
			ticker *time.Ticker
			tick   <-chan time.Time
		)
		reset := func(d time.Duration) {
			if ticker != nil {
				ticker.Stop()
				ticker, tick = nil, nil
			}
			if d > 0 {
				ticker = time.NewTicker(d)
				tick = ticker.C
			}
		}
		defer reset(0)

		reset(s.interval)
		zap.L().Info("sweep scheduler started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-cctx.Done():
				zap.L().Info("sweep scheduler stopped")
				return
			case d := <-s.resets:
				reset(d)
				zap.L().Info("sweep interval changed", zap.Duration("interval", d))
			case <-tick:
				if _, err := s.sweeper.Run(cctx); err != nil {
					zap.L().Error("scheduled sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// SetInterval replaces the interval; only the latest pending value is kept.
func (s *Scheduler) SetInterval(d time.Duration) {
	for {
		select {
		case s.resets <- d:
			return
		default:
		}
		select {
		case <-s.resets:
		default:
		}
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}
