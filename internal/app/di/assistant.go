package di

import (
	"context"
	"log/slog"

	"psx_backend/internal/feature/assistant/adapters/gemini"
	"psx_backend/internal/feature/assistant/adapters/keyword"
	assistantusecase "psx_backend/internal/feature/assistant/usecase"
	"psx_backend/internal/platform/config"
)

// NewAssistantAdapters picks the intent classifier chain and the answer writer.
// Without a Gemini key the keyword classifier answers alone and responses are the raw facts.
func NewAssistantAdapters(ctx context.Context, cfg config.Config) (classifier, fallback assistantusecase.IntentClassifier, writer assistantusecase.AnswerWriter) {
	kw := keyword.Classifier{}
	if cfg.Gemini.APIKey == "" {
		slog.Info("GEMINI_API_KEY not set, using keyword intent classifier")
		return kw, nil, nil
	}
	client, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		slog.Warn("gemini client unavailable, using keyword intent classifier", "error", err)
		return kw, nil, nil
	}
	return gemini.NewClassifier(client), kw, gemini.NewWriter(client)
}
