// Package images turns image prompts into report assets. Every prompt yields
// exactly one asset: a generated image when the model delivers one, a
// placeholder URL otherwise.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/reportgen/internal/ai"
	"github.com/thywilljoshua/reportgen/internal/metrics"
	"github.com/thywilljoshua/reportgen/internal/report"
)

const (
	maxPromptLen   = 500
	requestPrefix  = "Create an image: "
	labelLen       = 30
	logPreviewLen  = 50
	placeholderURL = "https://via.placeholder.com/800x500/%s?text=%s"
)

var palette = []string{
	"1a365d/ffffff",
	"065f46/ffffff",
	"7c2d12/ffffff",
	"4c1d95/ffffff",
	"991b1b/ffffff",
}

var labelStrip = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

type Acquirer struct {
	gen         ai.ImageGenerator
	concurrency int
	logger      *slog.Logger
}

// NewAcquirer builds an acquirer. A nil generator yields placeholders for
// every prompt; concurrency <= 0 keeps all prompts in flight at once.
func NewAcquirer(gen ai.ImageGenerator, concurrency int, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{gen: gen, concurrency: concurrency, logger: logger}
}

// Acquire returns one asset per prompt, in prompt order. It never fails:
// per-prompt errors are logged and replaced by placeholders.
func (a *Acquirer) Acquire(ctx context.Context, prompts []string) []report.Asset {
	assets := make([]report.Asset, len(prompts))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, prompt := range prompts {
		g.Go(func() error {
			assets[i] = a.acquireOne(ctx, i, prompt)
			return nil
		})
	}
	_ = g.Wait()

	return assets
}

func (a *Acquirer) acquireOne(ctx context.Context, index int, prompt string) report.Asset {
	if a.gen == nil {
		metrics.ImagesTotal.WithLabelValues("placeholder").Inc()
		return report.Asset{Prompt: prompt, ImageURL: Placeholder(index, prompt)}
	}

	img, err := a.gen.GenerateImage(ctx, requestPrefix+Shorten(prompt))
	if err != nil {
		a.logger.Warn("image generation failed, using placeholder",
			"index", index,
			"prompt", preview(prompt),
			"error", err,
		)
		metrics.ImagesTotal.WithLabelValues("placeholder").Inc()
		return report.Asset{Prompt: prompt, ImageURL: Placeholder(index, prompt)}
	}

	metrics.ImagesTotal.WithLabelValues("generated").Inc()
	return report.Asset{Prompt: prompt, ImageURL: report.DataURI(img.MIMEType, img.Data)}
}

// Shorten cuts prompts over the request limit to 497 characters plus "...".
func Shorten(prompt string) string {
	r := []rune(prompt)
	if len(r) <= maxPromptLen {
		return prompt
	}
	return string(r[:maxPromptLen-3]) + "..."
}

// Placeholder builds the stand-in image URL for the prompt at index. The
// background colour cycles through a fixed five-colour palette.
func Placeholder(index int, prompt string) string {
	color := palette[((index%len(palette))+len(palette))%len(palette)]
	return fmt.Sprintf(placeholderURL, color, url.QueryEscape(placeholderLabel(prompt)))
}

func placeholderLabel(prompt string) string {
	r := []rune(prompt)
	if len(r) > labelLen {
		r = r[:labelLen]
	}
	label := strings.TrimSpace(labelStrip.ReplaceAllString(string(r), ""))
	if label == "" {
		return "Image"
	}
	return label
}

func preview(prompt string) string {
	r := []rune(prompt)
	if len(r) <= logPreviewLen {
		return prompt
	}
	return string(r[:logPreviewLen]) + "..."
}
