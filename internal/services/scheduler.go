package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs the periodic rollover sweeps the lazy resets would
// otherwise leave to chance. It is owned and started by the hosting
// process; the core services stay timer-free and testable with an
// injected clock.
type Scheduler struct {
	interval time.Duration
	jobs     []func(ctx context.Context) error
	stop     chan struct{}
	done     sync.WaitGroup
	once     sync.Once
}

func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) AddJob(job func(ctx context.Context) error) {
	s.jobs = append(s.jobs, job)
}

func (s *Scheduler) Start(ctx context.Context) {
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runJobs(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) runJobs(ctx context.Context) {
	for _, job := range s.jobs {
		if err := job(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled job failed")
		}
	}
}

func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.done.Wait()
}
