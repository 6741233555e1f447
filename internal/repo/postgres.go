package repo

import (
    "context"
    "errors"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
    "github.com/LucasBarbosa257/Valmore/internal/domain"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("repo: not found")

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil {
        log.Fatal().Err(err).Msg("db connect failed")
    }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    if err := pool.Ping(ctx2); err != nil {
        log.Fatal().Err(err).Msg("db ping failed")
    }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil {
        return errors.New("advisory unlock returned false")
    }
    return err
}

// FindUserIDByAccessToken resolves the caller from the access token sent on
// each chat request.
func (r *Repository) FindUserIDByAccessToken(ctx context.Context, token string) (string, error) {
    const q = `SELECT user_id FROM user_access_tokens WHERE token=$1 AND revoked_at IS NULL`
    var userID string
    if err := r.db.Pool.QueryRow(ctx, q, token).Scan(&userID); err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return "", ErrNotFound
        }
        return "", err
    }
    return userID, nil
}

// GetIntegration loads the stored provider credentials for a user.
func (r *Repository) GetIntegration(ctx context.Context, userID, provider string) (*domain.UserIntegration, error) {
    const q = `SELECT id, user_id, provider, COALESCE(host,''), COALESCE(email,''), COALESCE(api_token,'')
        FROM user_integrations WHERE user_id=$1 AND provider=$2
        ORDER BY id DESC LIMIT 1`
    var in domain.UserIntegration
    row := r.db.Pool.QueryRow(ctx, q, userID, provider)
    if err := row.Scan(&in.ID, &in.UserID, &in.Provider, &in.Host, &in.Email, &in.APIToken); err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &in, nil
}

// Report runs

func (r *Repository) StartReportRun(ctx context.Context, trigger, projectKey string) (int64, error) {
    const q = `INSERT INTO report_runs(started_at, trigger, project_key, success)
        VALUES(now(), $1, $2, false) RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q, trigger, projectKey).Scan(&id); err != nil {
        return 0, err
    }
    return id, nil
}

func (r *Repository) FinishReportRun(ctx context.Context, id int64, issuesScanned int, intent string, success bool, errStr string) error {
    const q = `UPDATE report_runs SET finished_at=now(), issues_scanned=$2, intent=$3, success=$4, error=$5 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, issuesScanned, intent, success, errStr)
    return err
}

type LastRun struct {
    StartedAt     time.Time  `json:"started_at"`
    FinishedAt    *time.Time `json:"finished_at"`
    Trigger       string     `json:"trigger"`
    ProjectKey    string     `json:"project_key"`
    IssuesScanned int        `json:"issues_scanned"`
    Intent        string     `json:"intent"`
    Success       bool       `json:"success"`
    Error         string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    const q = `SELECT started_at, finished_at, COALESCE(trigger,''), COALESCE(project_key,''),
        COALESCE(issues_scanned,0), COALESCE(intent,''), COALESCE(success,false), COALESCE(error,'')
        FROM report_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    lr := &LastRun{}
    if err := row.Scan(&lr.StartedAt, &lr.FinishedAt, &lr.Trigger, &lr.ProjectKey,
        &lr.IssuesScanned, &lr.Intent, &lr.Success, &lr.Error); err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return lr, nil
}
