package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

// Pusher is the live-delivery side driven by the scheduler.
type Pusher interface {
	Heartbeat(ctx context.Context) (sent, pruned int)
	CloseIdle(ctx context.Context, maxIdle time.Duration) int
}

// Sweeper expires stale notifications in the durable store.
type Sweeper interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Scheduler owns the background jobs: the heartbeat/idle pass on the push
// side and the daily expiry sweep on the store side.
type Scheduler struct {
	cron    *gocron.Scheduler
	pusher  Pusher
	sweeper Sweeper
	push    config.PushConfig
	sweep   config.SweepConfig
}

// New builds a Scheduler; call Start to begin running jobs.
func New(pusher Pusher, sweeper Sweeper, push config.PushConfig, sweep config.SweepConfig) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(time.Local),
		pusher:  pusher,
		sweeper: sweeper,
		push:    push,
		sweep:   sweep,
	}
}

// Start registers the jobs and runs them asynchronously.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(s.push.HeartbeatInterval).Do(s.heartbeatPass); err != nil {
		return err
	}
	if _, err := s.cron.Every(s.sweep.IntervalDays).Day().Do(s.expirySweep); err != nil {
		return err
	}
	s.cron.StartAsync()
	logger.Infof("scheduler: started heartbeat_interval=%s sweep_interval_days=%d",
		s.push.HeartbeatInterval, s.sweep.IntervalDays)
	return nil
}

// Stop halts all jobs; running jobs finish first.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// heartbeatPass pushes a heartbeat to every live connection and then closes
// connections that went past the idle deadline.
func (s *Scheduler) heartbeatPass() {
	ctx := context.Background()
	sent, pruned := s.pusher.Heartbeat(ctx)
	closed := s.pusher.CloseIdle(ctx, s.push.IdleTimeout)
	if pruned > 0 || closed > 0 {
		logger.Infof("scheduler: heartbeat sent=%d pruned=%d idle_closed=%d", sent, pruned, closed)
	}
}

func (s *Scheduler) expirySweep() {
	expired, err := s.sweeper.ExpireOverdue(context.Background())
	if err != nil {
		logger.Errorf("scheduler: expiry sweep failed error=%v", err)
		return
	}
	logger.Infof("scheduler: expiry sweep done expired=%d", expired)
}
