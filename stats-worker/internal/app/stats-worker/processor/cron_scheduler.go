package processor

import (
	"context"
	"time"

	"opaque/pkg/logger"
	"opaque/stats-worker/internal/app/stats-worker/service"

	"github.com/robfig/cron/v3"
)

const rebuildTimeout = time.Minute

// CronScheduler периодически пересчитывает снапшот распределения оценок.
// Пересчет исправляет расхождения от потерянных или повторных событий.
type CronScheduler struct {
	cron     *cron.Cron
	statsSvc service.StatsServiceInterface
}

func NewCronScheduler(statsSvc service.StatsServiceInterface) *CronScheduler {
	cronLogger := cron.PrintfLogger(logger.Base())

	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &CronScheduler{
		cron:     c,
		statsSvc: statsSvc,
	}
}

// Start регистрирует задачу, запускает планировщик и сразу делает первый пересчет
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return err
	}
	s.cron.Schedule(sched, cron.FuncJob(func() { s.rebuild(ctx) }))

	s.cron.Start()
	logger.Info().
		Str("schedule", schedule).
		Time("next_run", sched.Next(time.Now())).
		Msg("Cron scheduler started")

	s.rebuild(ctx)
	return nil
}

func (s *CronScheduler) rebuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()

	start := time.Now()
	if err := s.statsSvc.RebuildSnapshot(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to rebuild rating snapshot")
		return
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("Rating snapshot rebuilt")
}

// Stop ждет завершения запущенной задачи
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("Cron scheduler stopped")
}
