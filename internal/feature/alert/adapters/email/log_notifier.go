package email

import (
	"context"
	"log/slog"

	"psx_backend/internal/feature/alert/domain/entity"
	"psx_backend/internal/feature/alert/usecase"
)

// LogNotifier はメールを送らずに内容をログへ出力します。APIキー未設定時に使います。
type LogNotifier struct{}

var _ usecase.Notifier = LogNotifier{}

// Channel は計測用のチャネル名です。
func (LogNotifier) Channel() string { return ProviderLog }

// Send は件名と本文をログに出力します。
func (LogNotifier) Send(ctx context.Context, msg entity.Message) error {
	slog.InfoContext(ctx, "email (not sent)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
