package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/LucasBarbosa257/Valmore/internal/adapters/jira"
    "github.com/LucasBarbosa257/Valmore/internal/adapters/openai"
    "github.com/LucasBarbosa257/Valmore/internal/adapters/telegram"
    "github.com/LucasBarbosa257/Valmore/internal/config"
    apphttp "github.com/LucasBarbosa257/Valmore/internal/http"
    "github.com/LucasBarbosa257/Valmore/internal/jobs"
    "github.com/LucasBarbosa257/Valmore/internal/logger"
    "github.com/LucasBarbosa257/Valmore/internal/repo"
    "github.com/LucasBarbosa257/Valmore/internal/services"
    "github.com/LucasBarbosa257/Valmore/internal/domain"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    repository := repo.NewRepository(db, log)

    newJira := func(integ domain.UserIntegration) services.JiraClient {
        return jira.NewClient(integ, cfg.JiraTimeout, log)
    }
    llm := openai.NewClient(cfg, log)
    tg := telegram.NewClient(cfg, log)

    svc, err := services.New(cfg, log, repository, newJira, llm, tg)
    if err != nil {
        log.Fatal().Err(err).Msg("service init failed")
    }

    router := apphttp.NewRouter(cfg, log, svc, repository)

    cron := jobs.NewCron(cfg, log, svc)
    cron.Start()
    defer cron.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil {
            log.Error().Err(err).Msg("http server error")
        }
    }

    time.Sleep(500 * time.Millisecond)
}
