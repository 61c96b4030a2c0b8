package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"psx_backend/internal/feature/alert/domain/entity"
	"psx_backend/internal/feature/alert/usecase"
)

// 送信プロバイダー名
const (
	ProviderResend = "resend"
	ProviderLog    = "log"
)

// Config はメール送信の設定です。
type Config struct {
	Provider   string        `yaml:"provider"` // 空の場合は APIKey の有無で決まる
	APIKey     string        `yaml:"api_key"`
	From       string        `yaml:"from"`
	BaseURL    string        `yaml:"base_url"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DefaultConfig は Resend の公開APIを使う設定を返します。
func DefaultConfig() Config {
	return Config{
		From:       "PSX Portfolio <alerts@example.com>",
		BaseURL:    "https://api.resend.com",
		MaxRetries: 3,
		Timeout:    10 * time.Second,
	}
}

// ResendNotifier は Resend のHTTP APIでメールを送信します。
// 5xx と通信エラーは指数バックオフで MaxRetries 回まで再試行します。
type ResendNotifier struct {
	cfg     Config
	client  *http.Client
	backoff time.Duration
}

var _ usecase.Notifier = (*ResendNotifier)(nil)

// NewResendNotifier は ResendNotifier を生成します。
func NewResendNotifier(cfg Config, client *http.Client) *ResendNotifier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &ResendNotifier{cfg: cfg, client: client, backoff: 500 * time.Millisecond}
}

// Channel は計測用のチャネル名です。
func (n *ResendNotifier) Channel() string { return ProviderResend }

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// permanentError は再試行しない失敗です。
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

// Send はメールを送信します。
func (n *ResendNotifier) Send(ctx context.Context, msg entity.Message) error {
	body, err := json.Marshal(sendRequest{
		From:    n.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	wait := n.backoff
	for attempt := 0; ; attempt++ {
		err = n.post(ctx, body)
		var perm permanentError
		if err == nil || errors.As(err, &perm) || attempt >= n.cfg.MaxRetries {
			return err
		}
		slog.Warn("email send failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}

func (n *ResendNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return permanent(ctx.Err())
		}
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	err = fmt.Errorf("resend http %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
		return err
	}
	return permanent(err)
}
