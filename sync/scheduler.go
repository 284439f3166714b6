package sync

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler runs periodic drain passes and reacts to connectivity
// regained signals between ticks
type Scheduler struct {
	processor *Processor
	interval  time.Duration
	online    chan struct{}
	stop      chan struct{}
}

// NewScheduler creates a new sync scheduler
func NewScheduler(processor *Processor, interval time.Duration) *Scheduler {
	return &Scheduler{
		processor: processor,
		interval:  interval,
		online:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// Start launches the drain loop and returns a cleanup function. The first
// pass runs immediately so a backlog built up while offline is not stuck
// waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) func() {
	go s.run(ctx)

	log.WithField("interval", s.interval).Info("Sync scheduler started")
	return func() {
		close(s.stop)
		log.Info("Sync scheduler stopped")
	}
}

// NotifyOnline requests a drain pass outside the regular schedule.
// Non-blocking; a signal already pending is enough.
func (s *Scheduler) NotifyOnline() {
	select {
	case s.online <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.drainOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.drainOnce(ctx)
		case <-s.online:
			log.Debug("Connectivity regained, draining sync queue")
			s.drainOnce(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) drainOnce(ctx context.Context) {
	if _, _, err := s.processor.Drain(ctx); err != nil {
		log.WithError(err).Error("Sync drain pass failed")
	}
}
