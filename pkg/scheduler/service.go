package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// ErrNotScheduled is returned by NextRun when no schedule is set
var ErrNotScheduled = errors.New("retraining is not scheduled")

// Trainer fits and saves a new model artifact
type Trainer interface {
	Train(ctx context.Context) (*mlmodel.Artifact, error)
}

// RunRecord describes the last retraining attempt
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	ModelID    string
	Err        error
}

// Service runs model retraining on a cron schedule
type Service struct {
	trainer    Trainer
	invalidate func()
	cron       *cron.Cron
	logger     *zap.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	expr    string
	lastRun *RunRecord
	timeout time.Duration
}

// NewService creates a new scheduler service. invalidate is called after every
// successful run so readers pick up the new artifact.
func NewService(trainer Trainer, invalidate func(), logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Service{
		trainer:    trainer,
		invalidate: invalidate,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:     logger,
		timeout:    time.Hour,
	}
}

// Schedule replaces the retraining schedule. expr is a standard five-field cron
// expression or a descriptor such as "@daily".
func (s *Service) Schedule(expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = s.cron.Schedule(schedule, cron.FuncJob(s.runScheduled))
	s.expr = expr

	s.logger.Info("Retraining scheduled",
		zap.String("schedule", expr),
		zap.Time("next_run", schedule.Next(time.Now())))
	return nil
}

// NextRun returns the next time retraining fires
func (s *Service) NextRun() (time.Time, error) {
	s.mu.Lock()
	entry := s.entry
	s.mu.Unlock()
	if entry == 0 {
		return time.Time{}, ErrNotScheduled
	}
	e := s.cron.Entry(entry)
	if e.Next.IsZero() {
		// Not started yet; compute from the schedule itself.
		return e.Schedule.Next(time.Now()), nil
	}
	return e.Next, nil
}

// LastRun returns the last retraining attempt, or nil when none has run
func (s *Service) LastRun() *RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	record := *s.lastRun
	return &record
}

// Status reports the schedule, the next run and the last attempt
func (s *Service) Status() models.RetrainStatus {
	var status models.RetrainStatus
	if next, err := s.NextRun(); err == nil {
		s.mu.Lock()
		status.Scheduled = true
		status.Schedule = s.expr
		s.mu.Unlock()
		status.NextRun = &next
	}
	if last := s.LastRun(); last != nil {
		run := &models.RetrainRun{
			ID:         last.ID,
			StartedAt:  last.StartedAt,
			FinishedAt: last.FinishedAt,
			ModelID:    last.ModelID,
		}
		if last.Err != nil {
			run.Error = last.Err.Error()
		}
		status.LastRun = run
	}
	return status
}

// Start starts the scheduler
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("Retraining scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish or ctx to expire
func (s *Service) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Retraining still running at shutdown")
	}
	s.logger.Info("Retraining scheduler stopped")
}

func (s *Service) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunNow(ctx); err != nil {
		s.logger.Error("Scheduled retraining failed", zap.Error(err))
	}
}

// RunNow trains a new artifact and invalidates the model cache on success
func (s *Service) RunNow(ctx context.Context) error {
	record := &RunRecord{ID: uuid.New().String(), StartedAt: time.Now()}
	logger := s.logger.With(zap.String("run_id", record.ID))
	logger.Info("Retraining model")

	artifact, err := s.trainer.Train(ctx)
	record.FinishedAt = time.Now()
	if err != nil {
		record.Err = err
	} else {
		record.ModelID = artifact.ID
		s.invalidate()
	}

	s.mu.Lock()
	s.lastRun = record
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("retraining failed: %w", err)
	}
	logger.Info("Retraining complete",
		zap.String("model_id", artifact.ID),
		zap.Duration("duration", record.FinishedAt.Sub(record.StartedAt)))
	return nil
}
