package http

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
    "github.com/LucasBarbosa257/Valmore/internal/domain"
    "github.com/LucasBarbosa257/Valmore/internal/repo"
    "github.com/LucasBarbosa257/Valmore/internal/services"
)

type service interface {
    Chat(ctx context.Context, accessToken, message string) (string, error)
    ProjectsForUser(ctx context.Context, accessToken string) ([]domain.Project, error)
    SnapshotForUser(ctx context.Context, accessToken, projectID string) (*domain.Snapshot, error)
    RunScheduledReport(ctx context.Context) error
}

type runStore interface {
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Handlers struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    runs runStore
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service, runs runStore) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc, runs: runs}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

type chatRequest struct {
    Message string `json:"message" binding:"required"`
}

func (h *Handlers) Chat(c *gin.Context) {
    var req chatRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "campo 'message' é obrigatório"})
        return
    }
    token := bearerToken(c)
    if token == "" {
        c.JSON(http.StatusUnauthorized, gin.H{"error": "token de acesso ausente"})
        return
    }
    ctx := c.Request.Context()
    if h.cfg.HTTPTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, h.cfg.HTTPTimeout)
        defer cancel()
    }
    content, err := h.svc.Chat(ctx, token, req.Message)
    if err != nil {
        h.replyError(c, err)
        return
    }
    c.JSON(http.StatusOK, gin.H{"content": content})
}

func (h *Handlers) Projects(c *gin.Context) {
    token := bearerToken(c)
    if token == "" {
        c.JSON(http.StatusUnauthorized, gin.H{"error": "token de acesso ausente"})
        return
    }
    projects, err := h.svc.ProjectsForUser(c.Request.Context(), token)
    if err != nil {
        h.replyError(c, err)
        return
    }
    c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handlers) IssueTree(c *gin.Context) {
    token := bearerToken(c)
    if token == "" {
        c.JSON(http.StatusUnauthorized, gin.H{"error": "token de acesso ausente"})
        return
    }
    snap, err := h.svc.SnapshotForUser(c.Request.Context(), token, c.Query("project_id"))
    if err != nil {
        h.replyError(c, err)
        return
    }
    c.JSON(http.StatusOK, snap)
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.runs.GetLastRun(c.Request.Context())
    if err != nil {
        if errors.Is(err, repo.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "nenhuma execução registrada"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RunNow(c *gin.Context) {
    // Detached from the request context so client disconnects do not abort
    // the report.
    go func() { _ = h.svc.RunScheduledReport(context.Background()) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// replyError maps pipeline failures to responses. Degraded upstream data
// yields a polite chat answer; broken analysis input yields a diagnostic
// that names the offending label or issue without leaking internals.
func (h *Handlers) replyError(c *gin.Context, err error) {
    var badStatus *domain.UnknownStatusError
    var badTree *domain.InconsistentTreeError
    var upstream *domain.UpstreamFetchError
    switch {
    case errors.Is(err, services.ErrUnauthorized):
        c.JSON(http.StatusUnauthorized, gin.H{"error": "token de acesso inválido"})
    case errors.Is(err, services.ErrNoIntegration):
        c.JSON(http.StatusBadRequest, gin.H{"error": "integração com o Jira não configurada para este usuário"})
    case errors.Is(err, domain.ErrEmptyProject):
        c.JSON(http.StatusOK, gin.H{"content": "Não encontrei projetos recentes na sua conta do Jira. Verifique a integração e tente novamente."})
    case errors.As(err, &upstream):
        h.log.Error().Err(err).Msg("upstream fetch failed")
        c.JSON(http.StatusOK, gin.H{"content": "Não consegui consultar o Jira agora, então os dados podem estar incompletos. Tente novamente em alguns minutos."})
    case errors.As(err, &badStatus):
        c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status desconhecido no quadro: " + badStatus.Status})
    case errors.As(err, &badTree):
        c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "dados inconsistentes no item " + badTree.Key})
    default:
        h.log.Error().Err(err).Msg("request failed")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno, tente novamente"})
    }
}

func bearerToken(c *gin.Context) string {
    auth := c.GetHeader("Authorization")
    const prefix = "Bearer "
    if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
        return strings.TrimSpace(auth[len(prefix):])
    }
    return ""
}
