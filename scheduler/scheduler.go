package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dosada05/tkd-tournament/services"
)

type Config struct {
	CronSpec      string // e.g. "*/15 * * * *" (server local time)
	CompetitionID string
	Timeout       time.Duration
}

// Importer - то, что умеет подтянуть заявки соревнования.
type Importer interface {
	ImportCompetition(ctx context.Context, competitionID string) (*services.SyncReport, error)
}

// Scheduler периодически импортирует заявки из таблицы.
type Scheduler struct {
	c        *cron.Cron
	config   Config
	importer Importer
	logger   *slog.Logger
}

func New(cfg Config, importer Importer, logger *slog.Logger) (*Scheduler, error) {
	if cfg.CronSpec == "" {
		return nil, errors.New("scheduler: cron spec is required")
	}
	if cfg.CompetitionID == "" {
		return nil, errors.New("scheduler: competition id is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	s := &Scheduler{
		c:        cron.New(), // standard 5-field spec
		config:   cfg,
		importer: importer,
		logger:   logger,
	}
	if _, err := s.c.AddFunc(cfg.CronSpec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	s.logger.Info("scheduler tick: importing roster", slog.String("competition_id", s.config.CompetitionID))
	report, err := s.importer.ImportCompetition(ctx, s.config.CompetitionID)
	if err != nil {
		s.logger.Error("scheduled roster import failed",
			slog.String("competition_id", s.config.CompetitionID), slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled roster import done",
		slog.Int("fetched", report.Fetched),
		slog.Int("imported", report.Imported),
		slog.Int("skipped", report.Skipped))
}

func (s *Scheduler) Start() {
	s.logger.Info("starting roster scheduler",
		slog.String("cron", s.config.CronSpec), slog.String("competition_id", s.config.CompetitionID))
	s.c.Start()
}

// Stop ждёт завершения текущего запуска, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("roster scheduler did not stop in time")
	}
}
