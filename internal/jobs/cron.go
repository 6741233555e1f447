package jobs

import (
    "context"
    "time"

    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
)

type service interface {
    RunScheduledReport(ctx context.Context) error
}

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    svc service
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
    if _, err := c.AddFunc(cfg.ReportCron, cr.weekly); err != nil {
        log.Error().Err(err).Str("schedule", cfg.ReportCron).Msg("cron: invalid schedule")
    }
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) weekly() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
    defer cancel()
    cr.log.Info().Msg("cron: weekly report")
    if err := cr.svc.RunScheduledReport(ctx); err != nil {
        cr.log.Error().Err(err).Msg("cron: weekly report failed")
    }
}
