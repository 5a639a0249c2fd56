package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/ai"
	"github.com/spigell/scheme-assistant/internal/ai/gemini"
	"github.com/spigell/scheme-assistant/internal/ai/openai"
	"github.com/spigell/scheme-assistant/internal/conversation"
	"github.com/spigell/scheme-assistant/internal/filtering"
	"github.com/spigell/scheme-assistant/internal/scheme"
	"github.com/spigell/scheme-assistant/internal/secrets"
	"github.com/spigell/scheme-assistant/internal/session"
)

// newSource picks the catalog source: a file, a PostgREST table, or the
// catalog embedded in the binary.
func newSource(cfg *CatalogConfig, logger *zap.Logger) (scheme.Source, error) {
	if cfg == nil {
		return scheme.Embedded(logger), nil
	}

	if file := strings.TrimSpace(cfg.File); file != "" {
		logger.Info("using catalog file", zap.String("path", file))
		return scheme.NewFileSource(file, logger), nil
	}

	if url := strings.TrimSpace(cfg.URL); url != "" {
		apiKey, err := secrets.Load(secrets.Source{
			Name: "catalog api key",
			File: cfg.APIKeyFile,
			Env:  "SUPABASE_ANON_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set catalog.api-key-file or SUPABASE_ANON_KEY)", err)
		}

		client := scheme.NewClient(logger, url, apiKey)
		if cfg.Table != "" {
			client.Table = cfg.Table
		}
		if cfg.PageSize > 0 {
			client.PageSize = cfg.PageSize
		}
		if order := strings.TrimSpace(cfg.Order); order != "" {
			client.Order = order
		}

		logger.Info("using remote catalog", zap.String("url", url), zap.String("table", client.Table))
		return client, nil
	}

	return scheme.Embedded(logger), nil
}

func newPipeline(config *Config, logger *zap.Logger) (*filtering.Pipeline, error) {
	source, err := newSource(config.Catalog, logger)
	if err != nil {
		return nil, err
	}

	var opts []filtering.PipelineOption
	if config.EnrolledFile != "" {
		opts = append(opts, filtering.WithEnrolledFile(config.EnrolledFile))
	}

	return filtering.NewPipeline(source, logger, opts...), nil
}

func newAssistant(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Assistant, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", ai.ProviderGemini:
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:       apiKey,
			Model:        cfg.Gemini.Model,
			MaxRetries:   cfg.Gemini.MaxRetries,
			MaxLogLength: cfg.Gemini.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case ai.ProviderOpenAI:
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai configuration is required when provider is openai")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}

		client, err := openai.NewClient(apiKey, cfg.OpenAI.Model, cfg.OpenAI.MaxLogLength, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// openStore opens the configured session store. Any failure falls back to
// the in-memory store.
func openStore(cfg *StoreConfig, logger *zap.Logger) session.Store {
	if cfg == nil {
		return session.NewMemoryStore()
	}

	store, err := session.Open(cfg.Driver, session.WithDSN(cfg.DSN))
	if err != nil {
		logger.Warn("session store is unavailable, keeping sessions in memory",
			zap.String("driver", cfg.Driver),
			zap.Error(err),
		)
		return session.NewMemoryStore()
	}
	return store
}

func controllerOptions(config *Config, store session.Store, dispatcher *conversation.Dispatcher, logger *zap.Logger) []conversation.Option {
	opts := []conversation.Option{conversation.WithLogger(logger)}

	if config.Store != nil {
		opts = append(opts, conversation.WithStore(store, config.Store.Timeout))
	} else {
		opts = append(opts, conversation.WithStore(store, 0))
	}

	if config.Pacing != nil {
		opts = append(opts, conversation.WithPacing(conversation.Pacing{
			CharDelay:     config.Pacing.CharDelay,
			QuestionPause: config.Pacing.QuestionPause,
		}))
	}

	if dispatcher != nil {
		opts = append(opts, conversation.WithDispatcher(dispatcher))
	}

	return opts
}
