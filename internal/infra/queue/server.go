package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/infra/metrics"
	"adtopia/internal/usecase"
)

// Deliverer sends one notification immediately.
type Deliverer interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// Server consumes the job types this service produces.
type Server struct {
	srv   *asynq.Server
	notes Deliverer
	gtmm  usecase.GTMMUseCase
	log   *zerolog.Logger
}

func NewServer(opt asynq.RedisClientOpt, concurrency int, notes Deliverer, gtmm usecase.GTMMUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "queue_server").Logger()
	s := &Server{notes: notes, gtmm: gtmm, log: &l}
	s.srv = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueCritical: 6,
			queueDefault:  3,
			queueLow:      1,
		},
		Logger:   asynqLogger{&l},
		LogLevel: asynq.WarnLevel,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			l.Warn().Err(err).Str("type", t.Type()).Msg("job failed")
		}),
	})
	return s
}

// Mux routes task types to handlers.
func (s *Server) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotificationDeliver, s.handleDeliver)
	mux.HandleFunc(TaskGTMMRun, s.handleGTMM)
	return mux
}

// Start launches the workers and returns.
func (s *Server) Start() error {
	s.log.Info().Msg("Starting background job server")
	return s.srv.Start(s.Mux())
}

func (s *Server) Stop() {
	s.log.Info().Msg("Stopping background job server")
	s.srv.Shutdown()
}

// permanent marks errors that a retry cannot fix.
func permanent(err error) error {
	if errors.Is(err, domain.ErrNotConfigured) || errors.Is(err, domain.ErrInvalidArgument) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func (s *Server) handleDeliver(ctx context.Context, t *asynq.Task) error {
	var n model.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		metrics.IncJob(TaskNotificationDeliver, "bad_payload")
		return fmt.Errorf("%w: unmarshal notification: %v", asynq.SkipRetry, err)
	}
	if err := s.notes.Deliver(ctx, n); err != nil {
		metrics.IncJob(TaskNotificationDeliver, "error")
		return permanent(err)
	}
	metrics.IncJob(TaskNotificationDeliver, "ok")
	return nil
}

func (s *Server) handleGTMM(ctx context.Context, t *asynq.Task) error {
	var p GTMMPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		metrics.IncJob(TaskGTMMRun, "bad_payload")
		return fmt.Errorf("%w: unmarshal gtmm payload: %v", asynq.SkipRetry, err)
	}

	if !p.Execute {
		prompt, err := s.gtmm.Generate(ctx, p.Request)
		if err != nil {
			metrics.IncJob(TaskGTMMRun, "error")
			return permanent(err)
		}
		metrics.IncJob(TaskGTMMRun, "ok")
		s.log.Info().Str("kind", string(prompt.Kind)).Str("prompt", prompt.Text).Msg("gtmm prompt generated")
		return nil
	}

	prompt, out, err := s.gtmm.Execute(ctx, p.Request)
	if err != nil {
		if prompt != nil && errors.Is(err, domain.ErrNotConfigured) {
			// no model wired: keep the prompt in the logs and stop retrying
			metrics.IncJob(TaskGTMMRun, "skipped")
			s.log.Warn().Str("kind", string(prompt.Kind)).Str("prompt", prompt.Text).Msg("gtmm execute skipped, no LLM configured")
			return nil
		}
		metrics.IncJob(TaskGTMMRun, "error")
		return permanent(err)
	}
	metrics.IncJob(TaskGTMMRun, "ok")
	s.log.Info().Str("kind", string(prompt.Kind)).Int("output_chars", len(out)).Str("output", out).Msg("gtmm prompt executed")
	return nil
}

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct{ l *zerolog.Logger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
