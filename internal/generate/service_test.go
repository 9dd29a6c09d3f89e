package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/reportgen/internal/ai"
	"github.com/thywilljoshua/reportgen/internal/history"
	"github.com/thywilljoshua/reportgen/internal/report"
)

type fakeText struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeText) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type fakeAcquirer struct {
	prompts []string
}

func (f *fakeAcquirer) Acquire(ctx context.Context, prompts []string) []report.Asset {
	f.prompts = prompts
	out := make([]report.Asset, len(prompts))
	for i, p := range prompts {
		out[i] = report.Asset{Prompt: p, ImageURL: report.DataURI("image/png", []byte{byte(i)})}
	}
	return out
}

type fakeStore struct {
	saved     []report.SavedReport
	appendErr error
}

func (f *fakeStore) List(ctx context.Context) ([]report.SavedReport, error) { return f.saved, nil }

func (f *fakeStore) Append(ctx context.Context, d report.Draft) (report.SavedReport, error) {
	if f.appendErr != nil {
		return report.SavedReport{}, f.appendErr
	}
	r := report.SavedReport{
		ID: "report-1", Topic: d.Topic, Content: d.Content, Style: d.Style,
		Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Config: d.Config, Images: d.Images,
	}
	f.saved = append([]report.SavedReport{r}, f.saved...)
	return r, nil
}

func (f *fakeStore) Remove(ctx context.Context, id string) error {
	for i, r := range f.saved {
		if r.ID == id {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return nil
		}
	}
	return history.ErrNotFound
}

func (f *fakeStore) Get(ctx context.Context, id string) (report.SavedReport, error) {
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return report.SavedReport{}, history.ErrNotFound
}

func config(topic string) report.Configuration {
	cfg := report.DefaultConfiguration()
	cfg.Topic = topic
	return cfg
}

const generated = "# Wind Power\n\n## Turbines\n\nText.\n\n[Image: rotor]\n"

func TestRun_WithImages(t *testing.T) {
	text := &fakeText{text: generated}
	acq := &fakeAcquirer{}
	store := &fakeStore{}
	svc := NewService(text, acq, store)

	cfg := config("Wind Power")
	cfg.IncludeImages = true
	cfg.ImageCount = 3

	res, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, text.prompts, 1)
	assert.Equal(t, report.BuildPrompt(cfg), text.prompts[0])
	assert.Equal(t, report.PlanImagePrompts(generated, 3, "Wind Power"), acq.prompts)

	assert.Equal(t, generated, res.Content)
	assert.Len(t, res.Assets, 3)
	require.NotNil(t, res.Saved)
	assert.Equal(t, "report-1", res.Saved.ID)
	assert.Equal(t, res.Assets, res.Saved.Images)

	figs := res.Document.Figures()
	require.Len(t, figs, 1)
	assert.Equal(t, res.Assets[0], *figs[0].Asset)
	assert.Len(t, res.Document.UnusedAssets(), 2)

	in := res.RenderInput()
	assert.Equal(t, "Wind Power", in.Topic)
	assert.Equal(t, res.Saved.Date, in.Date)
}

func TestRun_SkipsImagesWhenNotRequested(t *testing.T) {
	for _, cfg := range []report.Configuration{
		func() report.Configuration { c := config("x"); c.IncludeImages = false; c.ImageCount = 4; return c }(),
		func() report.Configuration { c := config("x"); c.IncludeImages = true; c.ImageCount = 0; return c }(),
	} {
		acq := &fakeAcquirer{}
		res, err := NewService(&fakeText{text: generated}, acq, &fakeStore{}).Run(context.Background(), cfg)
		require.NoError(t, err)
		assert.Nil(t, acq.prompts)
		assert.Empty(t, res.Assets)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	text := &fakeText{text: generated}
	_, err := NewService(text, nil, nil).Run(context.Background(), config("  "))

	assert.True(t, errors.Is(err, report.ErrInvalidConfig))
	assert.Empty(t, text.prompts)
}

func TestRun_MissingCredential(t *testing.T) {
	store := &fakeStore{}
	_, err := NewService(nil, nil, store).Run(context.Background(), config("x"))

	assert.True(t, errors.Is(err, ai.ErrMissingCredential))
	assert.Empty(t, store.saved)
}

func TestRun_GenerationFailureProducesNothing(t *testing.T) {
	tests := []struct {
		name string
		text *fakeText
	}{
		{"service error", &fakeText{err: errors.New("503 from upstream")}},
		{"empty text", &fakeText{text: "  \n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			acq := &fakeAcquirer{}
			cfg := config("x")
			cfg.IncludeImages = true

			res, err := NewService(tt.text, acq, store).Run(context.Background(), cfg)

			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrGeneration))
			assert.Nil(t, acq.prompts)
			assert.Empty(t, store.saved)
		})
	}
}

func TestRun_HistoryWriteFailureStillReturnsReport(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("disk full")}

	res, err := NewService(&fakeText{text: generated}, nil, store).Run(context.Background(), config("x"))
	require.NoError(t, err)
	assert.Nil(t, res.Saved)
	assert.Equal(t, generated, res.Content)
}

func TestRun_NilAcquirerUsesPlaceholders(t *testing.T) {
	cfg := config("Wind Power")
	cfg.IncludeImages = true
	cfg.ImageCount = 2

	res, err := NewService(&fakeText{text: generated}, nil, nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Assets, 2)
	for _, a := range res.Assets {
		assert.True(t, a.IsPlaceholder())
	}
}

func TestOpen_RetransformsSavedReport(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeText{text: generated}, &fakeAcquirer{}, store)
	cfg := config("Wind Power")
	cfg.IncludeImages = true
	cfg.ImageCount = 1
	first, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	opened, err := svc.Open(context.Background(), first.Saved.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Document, opened.Document)
	assert.Equal(t, cfg, opened.Config)

	_, err = svc.Open(context.Background(), "report-missing")
	assert.True(t, errors.Is(err, history.ErrNotFound))
}

func TestListAndRemove(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeText{text: generated}, nil, store)
	_, err := svc.Run(context.Background(), config("x"))
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Remove(context.Background(), list[0].ID))
	assert.True(t, errors.Is(svc.Remove(context.Background(), list[0].ID), history.ErrNotFound))
}

func TestPrompt(t *testing.T) {
	svc := NewService(nil, nil, nil)

	p, err := svc.Prompt(config("Dry run"))
	require.NoError(t, err)
	assert.Contains(t, p, `"Dry run"`)

	_, err = svc.Prompt(config(""))
	assert.Error(t, err)
}
