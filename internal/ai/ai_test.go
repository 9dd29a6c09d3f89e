package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func TestMock_GenerateText(t *testing.T) {
	prompt := `Generate a comprehensive technical report on the topic: "Tidal energy". Include 2 placeholders for images by adding: [Image: brief description] and [Graph: description]`

	text, err := Mock{}.GenerateText(context.Background(), prompt)
	require.NoError(t, err)

	assert.Contains(t, text, "# Tidal energy\n")
	assert.Contains(t, text, "[Image: overview diagram of Tidal energy]")
	assert.Contains(t, text, "[Graph: trend of published work on Tidal energy]")
}

func TestMock_GenerateTextWithoutMarkers(t *testing.T) {
	text, err := Mock{}.GenerateText(context.Background(), "no quotes here")
	require.NoError(t, err)

	assert.Contains(t, text, "# Report\n")
	assert.NotContains(t, text, "[Image:")
	assert.NotContains(t, text, "[Graph:")
}

func TestMock_GenerateImageIsDecodablePNG(t *testing.T) {
	img, err := Mock{}.GenerateImage(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	decoded, err := imaging.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 200), decoded.Bounds())
}

func TestFirstInlineImage(t *testing.T) {
	tests := []struct {
		name   string
		res    *genai.GenerateContentResponse
		want   Image
		wantOK bool
	}{
		{name: "nil response"},
		{name: "no candidates", res: &genai.GenerateContentResponse{}},
		{
			name: "text only",
			res: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}},
			}},
		},
		{
			name: "text then image",
			res: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte{1, 2}}},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{3}}},
				}}},
			}},
			want:   Image{MIMEType: "image/jpeg", Data: []byte{1, 2}},
			wantOK: true,
		},
		{
			name: "empty and untyped blobs skipped",
			res: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: nil},
				{Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "image/png"}},
					{InlineData: &genai.Blob{Data: []byte{9}}},
				}}},
			}},
		},
		{
			name: "non-image blob skipped",
			res: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: []byte{7}}},
				}}},
				{Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "image/webp", Data: []byte{8}}},
				}}},
			}},
			want:   Image{MIMEType: "image/webp", Data: []byte{8}},
			wantOK: true,
		},
		{
			name: "only non-image blobs",
			res: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "text/plain", Data: []byte("no image")}},
				}}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstInlineImage(tt.res)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConstructors_RequireCredential(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", "")
	assert.True(t, errors.Is(err, ErrMissingCredential))

	_, err = NewOpenAI("", "", "")
	assert.True(t, errors.Is(err, ErrMissingCredential))
}

func TestOpenAI_GenerateText(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"# Generated"}}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", "", srv.URL+"/")
	require.NoError(t, err)

	text, err := o.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "# Generated", text)
	assert.Equal(t, DefaultOpenAIModel, gotModel)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", "m", srv.URL+"/")
	require.NoError(t, err)

	_, err = o.GenerateText(context.Background(), "prompt")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}
