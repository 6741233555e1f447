package http

import (
    "crypto/subtle"
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service, runs runStore) *gin.Engine {
    if cfg.AppEnv != "dev" {
        gin.SetMode(gin.ReleaseMode)
    }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc, runs)

    r.GET("/healthz", h.Healthz)

    guarded := r.Group("/", apiKeyGuard(cfg))
    guarded.POST("/api/chat", h.Chat)
    guarded.GET("/integrations/jira/projects", h.Projects)
    guarded.GET("/integrations/jira/issue-tree", h.IssueTree)
    guarded.POST("/admin/run", h.RunNow)
    guarded.GET("/admin/last-run", h.LastRun)

    return r
}

// apiKeyGuard rejects requests whose x-api-key header does not match the
// configured service key.
func apiKeyGuard(cfg config.Config) gin.HandlerFunc {
    return func(c *gin.Context) {
        if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(c.GetHeader("x-api-key")), []byte(cfg.APIKey)) != 1 {
            c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "chave de API inválida"})
            return
        }
        c.Next()
    }
}
