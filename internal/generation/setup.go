package generation

import (
	"fmt"
	"log/slog"

	"caseprep/internal/config"
)

// Setup selects and constructs the configured generation provider.
// Both returned values are backed by the same provider instance.
func Setup(cfg *config.Config, logger *slog.Logger) (Provider, Transcriber, error) {
	switch cfg.Provider {
	case "openai":
		p, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.GenerationModel, cfg.TranscriptionModel)
		if err != nil {
			return nil, nil, fmt.Errorf("setup openai provider: %w", err)
		}
		logger.Info("generation provider ready", "provider", "openai", "model", cfg.GenerationModel)
		return p, p, nil

	case "canned":
		p := NewCannedProvider()
		logger.Warn("generation provider is offline canned mode - replies are deterministic placeholders")
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
