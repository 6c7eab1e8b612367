package store

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes run log entries older than a cutoff.
type Pruner interface {
	DeleteOldRuns(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RetentionService keeps the run log bounded.
type RetentionService struct {
	pruner    Pruner
	olderThan time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewRetentionService(pruner Pruner, olderThan time.Duration, logger *slog.Logger) *RetentionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionService{
		pruner:    pruner,
		olderThan: olderThan,
		interval:  24 * time.Hour,
		logger:    logger,
	}
}

func (s *RetentionService) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *RetentionService) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Prune immediately on startup
	s.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *RetentionService) cleanup(ctx context.Context) {
	count, err := s.pruner.DeleteOldRuns(ctx, s.olderThan)
	if err != nil {
		s.logger.Warn("run log retention failed", "error", err)
		return
	}
	s.logger.Info("run log retention", "deleted", count)
}
