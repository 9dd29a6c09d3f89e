package ai

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates report text through any OpenAI-compatible chat
// completions endpoint. It has no image capability.
type OpenAI struct {
	model string
	opts  []option.RequestOption
}

func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "missing OPENAI_API_KEY")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{model: model, opts: opts}, nil
}

func (o *OpenAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(o.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "openai text generation failed", goerr.V("model", o.model))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "openai returned no text", goerr.V("model", o.model))
	}
	return resp.Choices[0].Message.Content, nil
}
