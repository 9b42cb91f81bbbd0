package duecheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adoption-followup/internal/platform/logger"
)

const DefaultInterval = 12 * time.Hour

type Runner interface {
	Run(ctx context.Context, trigger Trigger) (Result, error)
}

type SchedulerOption func(*Scheduler)

// RunOnStart corre una vez apenas arranca, sin esperar el primer tick.
func RunOnStart() SchedulerOption {
	return func(s *Scheduler) { s.runOnStart = true }
}

// Scheduler dispara el due-check cada interval hasta Stop o hasta que se cancele el ctx de Start.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	log        logger.Logger
	runOnStart bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewScheduler(runner Runner, interval time.Duration, log logger.Logger, opts ...SchedulerOption) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		runner:   runner,
		interval: interval,
		log:      logger.OrNop(log).With(map[string]any{"component": "scheduler"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start lanza el loop en background. Llamarlo dos veces es un error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)

	s.log.Info("scheduler started", map[string]any{"interval": s.interval.String(), "run_on_start": s.runOnStart})
	return nil
}

// Stop cancela el loop y espera a que termine la corrida en curso.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("scheduler stopped", nil)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick nunca propaga: un error o panic de una corrida no mata el loop.
func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("due-check panicked", map[string]any{"panic": fmt.Sprint(r)})
		}
	}()

	if _, err := s.runner.Run(ctx, TriggerTimer); err != nil && ctx.Err() == nil {
		s.log.Error("scheduled due-check failed", map[string]any{"error": err})
	}
}
