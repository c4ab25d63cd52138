package scanning

import (
	"fmt"
	"log/slog"
)

// ExtractorConfig selects and configures an Extractor backend
type ExtractorConfig struct {
	Kind        string // "gemini" or "ollama"
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
}

// NewExtractor builds the backend named by cfg.Kind
func NewExtractor(cfg ExtractorConfig) (Extractor, error) {
	switch cfg.Kind {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini api key is required; set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini extractor...", "model", cfg.GeminiModel)
		gemini, err := NewGemini(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		ollama, err := NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		return ollama, nil
	default:
		return nil, fmt.Errorf("invalid extractor type %q: must be gemini or ollama", cfg.Kind)
	}
}
