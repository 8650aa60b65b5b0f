package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"adtopia/internal/config"
)

// Registrar is the part of *asynq.Scheduler used to add cron entries.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// Scheduler enqueues the configured GTMM runs on their cron specs.
type Scheduler struct {
	sched *asynq.Scheduler
	log   *zerolog.Logger
}

func NewScheduler(opt asynq.RedisClientOpt, logger *zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "queue_scheduler").Logger()
	return &Scheduler{
		sched: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   asynqLogger{&l},
			LogLevel: asynq.WarnLevel,
		}),
		log: &l,
	}
}

// RegisterGTMM adds one entry per schedule and returns how many were registered.
func RegisterGTMM(r Registrar, schedules []config.GTMMSchedule, logger *zerolog.Logger) (int, error) {
	for i, s := range schedules {
		if !s.Request.Kind.Valid() {
			return i, fmt.Errorf("gtmm schedule %d: unknown kind %q", i, s.Request.Kind)
		}
		task, err := NewGTMMTask(s.Execute, s.Request)
		if err != nil {
			return i, fmt.Errorf("gtmm schedule %d: %w", i, err)
		}
		id, err := r.Register(s.Cron, task)
		if err != nil {
			return i, fmt.Errorf("gtmm schedule %d (%q): %w", i, s.Cron, err)
		}
		logger.Info().Str("entry_id", id).Str("cron", s.Cron).Str("kind", string(s.Request.Kind)).Bool("execute", s.Execute).Msg("gtmm schedule registered")
	}
	return len(schedules), nil
}

func (s *Scheduler) Start(schedules []config.GTMMSchedule) error {
	if _, err := RegisterGTMM(s.sched, schedules, s.log); err != nil {
		return err
	}
	return s.sched.Start()
}

func (s *Scheduler) Stop() { s.sched.Shutdown() }
