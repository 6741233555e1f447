package services

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/analytics"
    "github.com/LucasBarbosa257/Valmore/internal/config"
    "github.com/LucasBarbosa257/Valmore/internal/domain"
    "github.com/LucasBarbosa257/Valmore/internal/render"
    "github.com/LucasBarbosa257/Valmore/internal/repo"
)

var (
    ErrUnauthorized  = errors.New("services: unknown access token")
    ErrNoIntegration = errors.New("services: jira integration not configured")
)

// Advisory lock key for the weekly scheduled report.
const weeklyReportLockKey = 0x56414c31

type JiraClient interface {
    RecentProjects(ctx context.Context) ([]domain.Project, error)
    IssueTree(ctx context.Context, projectID string) ([]domain.Epic, []domain.Task, error)
}

// JiraFactory builds a client bound to one user's stored credentials.
type JiraFactory func(integ domain.UserIntegration) JiraClient

type Commentator interface {
    Enabled() bool
    Commentary(ctx context.Context, report string) (string, error)
}

type Notifier interface {
    Enabled() bool
    SendReport(ctx context.Context, chatID int64, report string) error
}

// Store is the slice of the repository the service depends on.
type Store interface {
    FindUserIDByAccessToken(ctx context.Context, token string) (string, error)
    GetIntegration(ctx context.Context, userID, provider string) (*domain.UserIntegration, error)
    StartReportRun(ctx context.Context, trigger, projectKey string) (int64, error)
    FinishReportRun(ctx context.Context, id int64, issuesScanned int, intent string, success bool, errStr string) error
    TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
    AdvisoryUnlock(ctx context.Context, key int64) error
}

type Service struct {
    cfg      config.Config
    log      zerolog.Logger
    repo     Store
    newJira  JiraFactory
    llm      Commentator
    tg       Notifier
    statuses analytics.StatusMap
    builder  *analytics.ReportBuilder
}

func New(cfg config.Config, log zerolog.Logger, store Store, newJira JiraFactory, llm Commentator, tg Notifier) (*Service, error) {
    pt, err := render.NewPT()
    if err != nil {
        return nil, fmt.Errorf("services: load report locale: %w", err)
    }
    statuses := analytics.NewStatusMap(map[domain.StatusBucket][]string{
        domain.StatusBacklog:    cfg.StatusBuckets.Backlog,
        domain.StatusInProgress: cfg.StatusBuckets.InProgress,
        domain.StatusValidation: cfg.StatusBuckets.Validation,
        domain.StatusDone:       cfg.StatusBuckets.Done,
    })
    return &Service{
        cfg:      cfg,
        log:      log,
        repo:     store,
        newJira:  newJira,
        llm:      llm,
        tg:       tg,
        statuses: statuses,
        builder:  analytics.NewReportBuilder(pt),
    }, nil
}

// Chat answers one user question: it resolves the caller, pulls the latest
// project tree from Jira, computes the metrics locally and renders the
// report matching the question's intent.
func (s *Service) Chat(ctx context.Context, accessToken, message string) (string, error) {
    userID, jc, err := s.resolveJira(ctx, accessToken)
    if err != nil {
        return "", err
    }

    runID, err := s.repo.StartReportRun(ctx, "chat", "")
    if err != nil {
        s.log.Warn().Err(err).Msg("cannot record report run")
    }

    intent := analytics.ClassifyQuery(message, nil)
    md, metrics, err := s.buildReport(ctx, jc, intent)
    if runID > 0 {
        scanned := 0
        if metrics != nil {
            scanned = metrics.TotalIssues
        }
        errStr := ""
        if err != nil {
            errStr = err.Error()
        }
        if ferr := s.repo.FinishReportRun(ctx, runID, scanned, intent.String(), err == nil, errStr); ferr != nil {
            s.log.Warn().Err(ferr).Int64("run_id", runID).Msg("cannot finish report run")
        }
    }
    if err != nil {
        return "", err
    }
    s.log.Info().Str("user_id", userID).Str("intent", intent.String()).Msg("chat report built")
    return md, nil
}

// ProjectsForUser lists the caller's recent Jira projects. Used by the
// integration inspection endpoint.
func (s *Service) ProjectsForUser(ctx context.Context, accessToken string) ([]domain.Project, error) {
    _, jc, err := s.resolveJira(ctx, accessToken)
    if err != nil {
        return nil, err
    }
    return s.fetchProjects(ctx, jc)
}

// SnapshotForUser fetches the issue tree of one project without running the
// aggregation. Used by the integration inspection endpoint.
func (s *Service) SnapshotForUser(ctx context.Context, accessToken, projectID string) (*domain.Snapshot, error) {
    _, jc, err := s.resolveJira(ctx, accessToken)
    if err != nil {
        return nil, err
    }
    projects, err := s.fetchProjects(ctx, jc)
    if err != nil {
        return nil, err
    }
    project := projects[0]
    if projectID != "" {
        found := false
        for _, p := range projects {
            if p.ID == projectID || p.Key == projectID {
                project = p
                found = true
                break
            }
        }
        if !found {
            return nil, fmt.Errorf("services: project %s not among recent projects", projectID)
        }
    }
    epics, unparented, err := s.fetchTree(ctx, jc, project.ID)
    if err != nil {
        return nil, err
    }
    return &domain.Snapshot{Project: project, Epics: epics, Unparented: unparented}, nil
}

// RunScheduledReport produces the weekly strategic report with the
// operator-level integration and delivers it to the configured Telegram
// chats. A Postgres advisory lock keeps concurrent instances from sending
// duplicates.
func (s *Service) RunScheduledReport(ctx context.Context) error {
    if s.cfg.JiraHost == "" || s.cfg.JiraEmail == "" || s.cfg.JiraToken == "" {
        return errors.New("services: scheduled report requires JIRA_HOST, JIRA_EMAIL and JIRA_API_TOKEN")
    }
    ok, err := s.repo.TryAdvisoryLock(ctx, weeklyReportLockKey)
    if err != nil {
        return err
    }
    if !ok {
        s.log.Info().Msg("scheduled report already running elsewhere, skipping")
        return nil
    }
    defer func() {
        if err := s.repo.AdvisoryUnlock(ctx, weeklyReportLockKey); err != nil {
            s.log.Warn().Err(err).Msg("advisory unlock failed")
        }
    }()

    runID, err := s.repo.StartReportRun(ctx, "cron", "")
    if err != nil {
        s.log.Warn().Err(err).Msg("cannot record report run")
    }

    jc := s.newJira(domain.UserIntegration{
        Provider: "jira",
        Host:     s.cfg.JiraHost,
        Email:    s.cfg.JiraEmail,
        APIToken: s.cfg.JiraToken,
    })
    md, metrics, err := s.buildReport(ctx, jc, domain.IntentStrategicBroad)
    if runID > 0 {
        scanned := 0
        if metrics != nil {
            scanned = metrics.TotalIssues
        }
        errStr := ""
        if err != nil {
            errStr = err.Error()
        }
        if ferr := s.repo.FinishReportRun(ctx, runID, scanned, domain.IntentStrategicBroad.String(), err == nil, errStr); ferr != nil {
            s.log.Warn().Err(ferr).Int64("run_id", runID).Msg("cannot finish report run")
        }
    }
    if err != nil {
        return err
    }

    if s.tg == nil || !s.tg.Enabled() || len(s.cfg.TelegramChatIDs) == 0 {
        s.log.Warn().Msg("telegram delivery not configured, report discarded")
        return nil
    }
    var wg sync.WaitGroup
    for _, chatID := range s.cfg.TelegramChatIDs {
        wg.Add(1)
        go func(id int64) {
            defer wg.Done()
            if err := s.tg.SendReport(ctx, id, md); err != nil {
                s.log.Error().Err(err).Int64("chat_id", id).Msg("telegram delivery failed")
            }
        }(chatID)
    }
    wg.Wait()
    return nil
}

func (s *Service) resolveJira(ctx context.Context, accessToken string) (string, JiraClient, error) {
    userID, err := s.repo.FindUserIDByAccessToken(ctx, accessToken)
    if err != nil {
        if errors.Is(err, repo.ErrNotFound) {
            return "", nil, ErrUnauthorized
        }
        return "", nil, err
    }
    integ, err := s.repo.GetIntegration(ctx, userID, "jira")
    if err != nil {
        if errors.Is(err, repo.ErrNotFound) {
            return "", nil, ErrNoIntegration
        }
        return "", nil, err
    }
    return userID, s.newJira(*integ), nil
}

// buildReport runs the full pipeline for the most recently active project:
// fetch, classify, aggregate, render, optional commentary.
func (s *Service) buildReport(ctx context.Context, jc JiraClient, intent domain.Intent) (string, *domain.ProjectMetrics, error) {
    projects, err := s.fetchProjects(ctx, jc)
    if err != nil {
        return "", nil, err
    }
    project := projects[0]
    epics, unparented, err := s.fetchTree(ctx, jc, project.ID)
    if err != nil {
        return "", nil, err
    }
    snap := domain.Snapshot{Project: project, Epics: epics, Unparented: unparented}

    metrics, err := analytics.Aggregate(snap, analytics.Config{
        Statuses:  s.statuses,
        Now:       time.Now(),
        Window:    s.cfg.AnalysisWindow,
        Lookahead: s.cfg.RiskLookahead,
    })
    if err != nil {
        return "", nil, err
    }
    report := s.builder.Build(metrics, intent)
    md := render.Markdown(report)

    if intent == domain.IntentStrategicBroad && s.llm != nil && s.llm.Enabled() {
        cctx, cancel := context.WithTimeout(ctx, s.cfg.OpenAITimeout)
        comment, cerr := s.llm.Commentary(cctx, md)
        cancel()
        if cerr != nil {
            s.log.Warn().Err(cerr).Msg("commentary skipped")
        } else if comment != "" {
            md += "\n### Comentário do analista\n\n" + comment + "\n"
        }
    }
    return md, metrics, nil
}

func (s *Service) fetchProjects(ctx context.Context, jc JiraClient) ([]domain.Project, error) {
    fctx, cancel := context.WithTimeout(ctx, s.cfg.JiraTimeout)
    defer cancel()
    projects, err := jc.RecentProjects(fctx)
    if err != nil {
        return nil, &domain.UpstreamFetchError{Op: "recent projects", Err: err}
    }
    if len(projects) == 0 {
        return nil, domain.ErrEmptyProject
    }
    return projects, nil
}

func (s *Service) fetchTree(ctx context.Context, jc JiraClient, projectID string) ([]domain.Epic, []domain.Task, error) {
    // Tree fetch paginates, so it gets a wider deadline than a single call.
    fctx, cancel := context.WithTimeout(ctx, 4*s.cfg.JiraTimeout)
    defer cancel()
    epics, unparented, err := jc.IssueTree(fctx, projectID)
    if err != nil {
        var badStatus *domain.UnknownStatusError
        var badTree *domain.InconsistentTreeError
        if errors.As(err, &badStatus) || errors.As(err, &badTree) {
            return nil, nil, err
        }
        return nil, nil, &domain.UpstreamFetchError{Op: "issue tree", Err: err}
    }
    return epics, unparented, nil
}
