package di

import (
	"psx_backend/internal/feature/alert/adapters/email"
	alertusecase "psx_backend/internal/feature/alert/usecase"
	"psx_backend/internal/platform/config"
)

// NewNotifier returns the Resend notifier, or the log notifier when email is not configured.
func NewNotifier(cfg config.Config) alertusecase.Notifier {
	if cfg.Email.Provider == email.ProviderResend {
		return email.NewResendNotifier(cfg.Email, NewEmailClient(cfg))
	}
	return email.LogNotifier{}
}
