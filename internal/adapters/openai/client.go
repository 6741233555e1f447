package openai

import (
    "context"
    "errors"
    "strings"

    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
)

const systemPrompt = "Você é um analista de gestão de projetos. Receberá um relatório " +
    "já calculado a partir dos dados do Jira. Escreva um comentário curto em português " +
    "com observações acionáveis sobre riscos, gargalos e próximos passos. Não invente " +
    "números: use apenas os valores presentes no relatório. Responda em markdown simples, " +
    "sem títulos, em no máximo cinco frases."

// Client produces the optional narrative commentary appended to strategic
// reports. All figures in the report are computed locally; the model only
// comments on them.
type Client struct {
    key   string
    model string
    cli   openai.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" {
        model = "gpt-4.1-mini"
    }
    cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey), option.WithRequestTimeout(cfg.OpenAITimeout))
    return &Client{key: cfg.OpenAIKey, model: model, cli: cli, log: log}
}

// Enabled reports whether an API key is configured. When false the service
// skips commentary instead of failing the request.
func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

func (c *Client) Commentary(ctx context.Context, report string) (string, error) {
    if !c.Enabled() {
        return "", errors.New("openai: missing key")
    }
    c.log.Info().Str("model", c.model).Msg("openai commentary call")
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage(systemPrompt),
            openai.UserMessage(report),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil {
        return "", err
    }
    if len(resp.Choices) == 0 {
        return "", errors.New("openai: no choices")
    }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
