// Package scheduler runs the periodic snapshot refresh. Progress is always
// computed from the study log on demand; the scheduler only keeps the
// denormalized chunk_progress copies warm for dashboard reads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kyogaku/studyhall/internal/study"
)

type Scheduler struct {
	inner *gocron.Scheduler
	svc   *study.Service
	log   *slog.Logger
}

func New(svc *study.Service, log *slog.Logger) *Scheduler {
	return &Scheduler{
		inner: gocron.NewScheduler(time.UTC),
		svc:   svc,
		log:   log,
	}
}

// Start schedules the refresh job and begins running it in the background.
func (s *Scheduler) Start(every time.Duration) error {
	_, err := s.inner.Every(every).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		start := time.Now()
		if err := s.svc.RefreshSnapshots(ctx); err != nil {
			s.log.Error("snapshot refresh failed", "err", err)
			return
		}
		s.log.Info("snapshot refresh done", "took", time.Since(start).String())
	})
	if err != nil {
		return err
	}
	s.inner.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.inner.Stop()
}
