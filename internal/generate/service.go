// Package generate runs one report generation cycle end to end: validate the
// configuration, produce the text, acquire images, save the result to the
// history and transform it for rendering.
package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/thywilljoshua/reportgen/internal/ai"
	"github.com/thywilljoshua/reportgen/internal/history"
	"github.com/thywilljoshua/reportgen/internal/images"
	"github.com/thywilljoshua/reportgen/internal/metrics"
	"github.com/thywilljoshua/reportgen/internal/render"
	"github.com/thywilljoshua/reportgen/internal/report"
)

// ErrGeneration means the text service failed or returned nothing usable.
// No partial report is produced.
var ErrGeneration = errors.New("report generation failed")

type AssetAcquirer interface {
	Acquire(ctx context.Context, prompts []string) []report.Asset
}

type Result struct {
	Config   report.Configuration
	Content  string
	Assets   []report.Asset
	Document report.Document
	// Saved is nil when the history write failed.
	Saved *report.SavedReport
}

// RenderInput packs the result for an exporter.
func (r *Result) RenderInput() render.Input {
	topic, date := r.Config.Topic, time.Now()
	if r.Saved != nil {
		topic, date = r.Saved.Topic, r.Saved.Date
	}
	return render.Input{
		Topic:    topic,
		Date:     date,
		Content:  r.Content,
		Document: r.Document,
	}
}

type Service struct {
	text     ai.TextGenerator
	acquirer AssetAcquirer
	store    history.Store
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Service)

// WithTimeout bounds the text and image phase of a cycle.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService wires a generation service. text may be nil when no credential
// is configured; Run then fails with ai.ErrMissingCredential. A nil acquirer
// yields placeholder images.
func NewService(text ai.TextGenerator, acquirer AssetAcquirer, store history.Store, opts ...Option) *Service {
	s := &Service{
		text:     text,
		acquirer: acquirer,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.acquirer == nil {
		s.acquirer = images.NewAcquirer(nil, 0, s.logger)
	}
	return s
}

// Prompt validates cfg and returns the text generation prompt without calling
// any service.
func (s *Service) Prompt(cfg report.Configuration) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return report.BuildPrompt(cfg), nil
}

func (s *Service) Run(ctx context.Context, cfg report.Configuration) (*Result, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.text == nil {
		metrics.GenerationsTotal.WithLabelValues("no_credential").Inc()
		return nil, goerr.Wrap(ai.ErrMissingCredential, "no text generator configured")
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("generating report",
		"topic", cfg.Topic,
		"report_length", cfg.ReportLength,
		"include_images", cfg.IncludeImages,
		"image_count", cfg.ImageCount,
		"include_graphs", cfg.IncludeGraphs,
	)

	content, err := s.text.GenerateText(genCtx, report.BuildPrompt(cfg))
	if err == nil && strings.TrimSpace(content) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		return nil, goerr.Wrap(errors.Join(ErrGeneration, err), "text generation failed", goerr.V("topic", cfg.Topic))
	}

	var assets []report.Asset
	if cfg.WantsImages() {
		prompts := report.PlanImagePrompts(content, cfg.ImageCount, cfg.Topic)
		assets = s.acquirer.Acquire(genCtx, prompts)
	}

	res := &Result{
		Config:   cfg,
		Content:  content,
		Assets:   assets,
		Document: report.Transform(content, assets),
	}

	if s.store != nil {
		saved, err := s.store.Append(ctx, report.Draft{
			Topic:   cfg.Topic,
			Content: content,
			Style:   cfg.ReportStyle,
			Config:  cfg,
			Images:  assets,
		})
		if err != nil {
			s.logger.Error("failed to save report to history", "topic", cfg.Topic, "error", err)
		} else {
			res.Saved = &saved
		}
	}

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("report generated",
		"topic", cfg.Topic,
		"chars", len(content),
		"images", len(assets),
		"duration", time.Since(start),
	)
	return res, nil
}

// Open loads a saved report and transforms it again for display.
func (s *Service) Open(ctx context.Context, id string) (*Result, error) {
	if s.store == nil {
		return nil, goerr.Wrap(history.ErrNotFound, "no history configured", goerr.V("id", id))
	}
	saved, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Result{
		Config:   saved.Config,
		Content:  saved.Content,
		Assets:   saved.Images,
		Document: report.Transform(saved.Content, saved.Images),
		Saved:    &saved,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]report.SavedReport, error) {
	if s.store == nil {
		return []report.SavedReport{}, nil
	}
	return s.store.List(ctx)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if s.store == nil {
		return goerr.Wrap(history.ErrNotFound, "no history configured", goerr.V("id", id))
	}
	return s.store.Remove(ctx, id)
}
