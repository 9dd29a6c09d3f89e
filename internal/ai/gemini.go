package ai

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	genai "google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"

	imageTemperature = 0.4
)

type Gemini struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

func NewGemini(ctx context.Context, apiKey, textModel, imageModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "missing GEMINI_API_KEY")
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return &Gemini{client: c, textModel: textModel, imageModel: imageModel}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.textModel, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		return "", goerr.Wrap(err, "gemini text generation failed", goerr.V("model", g.textModel))
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "gemini returned no text", goerr.V("model", g.textModel))
	}
	return text, nil
}

// GenerateImage asks the image model for one picture. The model answers with
// mixed text and image parts; the first inline image wins.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	conf := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Temperature:        genai.Ptr[float32](imageTemperature),
	}
	res, err := g.client.Models.GenerateContent(ctx, g.imageModel, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, conf)
	if err != nil {
		return Image{}, goerr.Wrap(err, "gemini image generation failed", goerr.V("model", g.imageModel))
	}
	img, ok := firstInlineImage(res)
	if !ok {
		return Image{}, goerr.Wrap(ErrNoImage, "gemini returned no inline image", goerr.V("model", g.imageModel))
	}
	return img, nil
}

func firstInlineImage(res *genai.GenerateContentResponse) (Image, bool) {
	if res == nil {
		return Image{}, false
	}
	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			return Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, true
		}
	}
	return Image{}, false
}
