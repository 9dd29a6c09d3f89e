package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/thywilljoshua/reportgen/internal"
	"github.com/thywilljoshua/reportgen/internal/ai"
	"github.com/thywilljoshua/reportgen/internal/generate"
	"github.com/thywilljoshua/reportgen/internal/history"
	"github.com/thywilljoshua/reportgen/internal/images"
	"github.com/thywilljoshua/reportgen/internal/render"
)

// app is the wiring shared by every command.
type app struct {
	cfg     *internal.Config
	logger  *slog.Logger
	svc     *generate.Service
	fetcher render.ImageFetcher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, err
	}
	// stdout carries command output, logs go to stderr
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	text, img, err := newGenerators(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		svc: generate.NewService(text,
			images.NewAcquirer(img, cfg.ImageConcurrency, logger),
			store,
			generate.WithTimeout(cfg.AIRequestTimeout),
			generate.WithLogger(logger),
		),
	}
	if cfg.FetchRemoteImages {
		a.fetcher = render.NewHTTPImageFetcher()
	}
	return a, nil
}

// newGenerators returns nil generators when the provider has no credential;
// generation then fails with ai.ErrMissingCredential while history and export
// keep working.
func newGenerators(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (ai.TextGenerator, ai.ImageGenerator, error) {
	switch cfg.AIProvider {
	case internal.ProviderMock:
		return ai.Mock{}, ai.Mock{}, nil

	case internal.ProviderOpenAI:
		o, err := ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if errors.Is(err, ai.ErrMissingCredential) {
			logger.Warn("OPENAI_API_KEY is not set, report generation is unavailable")
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		// images still come from Gemini when a key is available
		var img ai.ImageGenerator
		if g, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel); err == nil {
			img = g
		}
		return o, img, nil

	default:
		g, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel)
		if errors.Is(err, ai.ErrMissingCredential) {
			logger.Warn("GEMINI_API_KEY is not set, report generation is unavailable")
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	}
}

func newStore(cfg *internal.Config, logger *slog.Logger) (history.Store, error) {
	if cfg.HistoryBackend == internal.HistoryS3 {
		slot, err := history.NewS3Slot(history.S3Config{
			Bucket:          cfg.HistoryS3Bucket,
			Key:             cfg.HistoryS3Key,
			Region:          cfg.HistoryS3Region,
			Endpoint:        cfg.HistoryS3Endpoint,
			AccessKeyID:     cfg.HistoryS3AccessKeyID,
			SecretAccessKey: cfg.HistoryS3SecretAccessKey,
		}, logger)
		if err != nil {
			return nil, err
		}
		return history.NewBlobStore(slot, logger), nil
	}
	return history.NewBlobStore(history.NewFileSlot(cfg.HistoryPath), logger), nil
}
