package telegram

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
)

// Telegram caps messages at 4096 characters; long reports are split on
// line boundaries below this limit.
const maxMessageLen = 4000

type Client struct {
    token string
    http  *http.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{token: cfg.TelegramToken, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

func (c *Client) Enabled() bool { return c.token != "" }

// SendMessage sends a single plain-text message. Reports are sent without
// parse_mode because markdown tables routinely fail Telegram's parser.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
    if c.token == "" || chatID == 0 {
        return fmt.Errorf("telegram: missing token or chat id")
    }
    url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.token)
    body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
    b, _ := json.Marshal(body)
    req, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        bodyBytes, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(bodyBytes))
    }
    return nil
}

// SendReport splits a rendered report into chunks under the Telegram size
// limit and sends them in order.
func (c *Client) SendReport(ctx context.Context, chatID int64, report string) error {
    for _, chunk := range splitChunks(report, maxMessageLen) {
        if err := c.SendMessage(ctx, chatID, chunk); err != nil {
            return err
        }
    }
    return nil
}

func splitChunks(text string, limit int) []string {
    if len(text) <= limit {
        return []string{text}
    }
    var chunks []string
    var b strings.Builder
    for _, line := range strings.Split(text, "\n") {
        // A single oversized line is split hard.
        for len(line) > limit {
            if b.Len() > 0 {
                chunks = append(chunks, b.String())
                b.Reset()
            }
            chunks = append(chunks, line[:limit])
            line = line[limit:]
        }
        if b.Len()+len(line)+1 > limit {
            chunks = append(chunks, b.String())
            b.Reset()
        }
        if b.Len() > 0 {
            b.WriteByte('\n')
        }
        b.WriteString(line)
    }
    if b.Len() > 0 {
        chunks = append(chunks, b.String())
    }
    return chunks
}
