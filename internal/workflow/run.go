package workflow

import (
	"context"
	"errors"
	"time"

	"playscribe/internal/logging"
	"playscribe/internal/services"
)

// Run executes cycles until ctx is cancelled or a fatal error occurs.
// Searched and advanced cycles are followed immediately by the next one.
// Idle cycles wait for the idle interval and failed cycles for the error
// retry interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		logging.Int("max_candidates", s.maxCandidates),
		logging.Int("max_attempts", s.maxAttempts),
		logging.Duration("idle_interval", s.idleInterval),
		logging.String(logging.FieldEventType, "scheduler_started"),
	)
	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "scheduler_stopped"))
			return nil
		}

		outcome, err := s.Cycle(ctx)
		var wait time.Duration
		switch {
		case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && ctx.Err() != nil:
			continue
		case err != nil && services.IsFatal(err):
			logging.ErrorWithContext(s.logger, "scheduler stopping on fatal error", "scheduler_fatal",
				logging.String("outcome", outcome.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the configuration or topic rules and restart"),
			)
			return err
		case err != nil && outcome == OutcomeSearchFailed:
			// logged by discover
			wait = s.errorRetryInterval
		case err != nil:
			logging.WarnWithContext(s.logger, "cycle failed", "cycle_failed",
				logging.String("outcome", outcome.String()),
				logging.Error(err),
				logging.Duration("retry_in", s.errorRetryInterval),
			)
			wait = s.errorRetryInterval
		case outcome == OutcomeIdle:
			wait = s.idleInterval
		}

		if wait > 0 {
			if sleepContext(ctx, wait) != nil {
				continue
			}
		}
	}
}
