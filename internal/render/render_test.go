package render

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/reportgen/internal/report"
)

const sampleContent = "# Solar Energy\n\n## Executive Summary\n\nSolar power is **abundant**.\n\n- cheap\n- clean\n\n[Image: photovoltaic panel]\n\n```go\nfmt.Println(\"sun\")\n```\n\n[Graph: installed capacity per year]\n\n[Image: inverter]\n\n| Year | GW |\n|------|----|\n| 2020 | 700 |\n\n<div class=\"note\">raw html</div>\n"

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(40, 20, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return report.DataURI("image/png", buf.Bytes())
}

func sampleInput(t *testing.T) Input {
	assets := []report.Asset{
		{Prompt: "panel prompt", ImageURL: pngDataURI(t)},
		{Prompt: "inverter prompt", ImageURL: "https://via.placeholder.com/800x500/065f46/ffffff?text=inverter"},
		{Prompt: "spare prompt", ImageURL: "https://images.example.com/spare.png"},
	}
	return NewInput("Solar Energy", sampleContent, assets, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
}

func TestMarkdownExporter_WritesContentUnchanged(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer

	n, err := MarkdownExporter{}.Export(context.Background(), in, &buf)
	require.NoError(t, err)
	assert.Equal(t, sampleContent, buf.String())
	assert.Equal(t, int64(len(sampleContent)), n)
}

func TestHTMLExporter_Preview(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer

	_, err := NewHTMLExporter().Export(context.Background(), in, &buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "<title>Solar Energy</title>")
	assert.Contains(t, out, "<h1>Solar Energy</h1>")
	assert.Contains(t, out, "<strong>abundant</strong>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<div class="note">raw html</div>`)

	assert.Contains(t, out, "AI-Generated Images")
	assert.Equal(t, 2, strings.Count(out, `<span class="badge generated">AI Generated</span>`))
	assert.Equal(t, 1, strings.Count(out, `<span class="badge placeholder">Placeholder</span>`))
	assert.Contains(t, out, `class="notice"`)
	assert.Contains(t, out, `src="data:image/png;base64,`)
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestHTMLExporter_NoImages(t *testing.T) {
	in := NewInput("", "# Only text", nil, time.Time{})
	var buf bytes.Buffer

	_, err := NewHTMLExporter().Export(context.Background(), in, &buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "AI-Generated Images")
	assert.Contains(t, buf.String(), "<title>"+DefaultTitle+"</title>")
}

type fakeFetcher struct {
	urls []string
	err  error
	data []byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.data, f.err
}

func TestPDFExporter_ProducesPaginatedDocument(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer

	n, err := NewPDFExporter(nil, nil).Export(context.Background(), in, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	pages, err := PageCountBytes(buf.Bytes())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 2, "cover page plus content pages")
}

func TestPDFExporter_LongReportsBreakPages(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Long\n")
	for i := 0; i < 200; i++ {
		b.WriteString("A paragraph that goes on for a while to fill the page with text.\n")
	}
	in := NewInput("Long", b.String(), nil, time.Now())
	var buf bytes.Buffer

	_, err := NewPDFExporter(nil, nil).Export(context.Background(), in, &buf)
	require.NoError(t, err)

	pages, err := PageCountBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Greater(t, pages, 3)
}

func TestPDFExporter_FetchesOnlyRemoteNonPlaceholderImages(t *testing.T) {
	content := "[Image: a]\n[Image: b]\n[Image: c]"
	assets := []report.Asset{
		{ImageURL: "https://via.placeholder.com/800x500/1a365d/ffffff?text=a"},
		{ImageURL: "https://images.example.com/b.png"},
		{ImageURL: pngDataURI(t)},
	}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	var buf bytes.Buffer

	_, err := NewPDFExporter(fetcher, nil).Export(context.Background(), NewInput("t", content, assets, time.Now()), &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://images.example.com/b.png"}, fetcher.urls)
}

func TestPDFExporter_UndecodableImageFallsBackToBox(t *testing.T) {
	assets := []report.Asset{{ImageURL: report.DataURI("image/png", []byte("not an image"))}}
	var buf bytes.Buffer

	_, err := NewPDFExporter(nil, nil).Export(context.Background(), NewInput("t", "[Image: broken]", assets, time.Now()), &buf)
	require.NoError(t, err)
}

func TestPDFExporter_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFExporter(nil, nil).Export(ctx, sampleInput(t), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPageCount_RejectsGarbage(t *testing.T) {
	_, err := PageCountBytes([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestInlineText(t *testing.T) {
	assert.Equal(t, "• item with bold", inlineText("- item with **bold**"))
	assert.Equal(t, "  • nested code", inlineText("  * nested `code`"))
	assert.Equal(t, "2 * 3 = 6", inlineText("2 * 3 = 6"))
}

func TestFormats(t *testing.T) {
	for _, s := range []string{"pdf", "md", "markdown", "html"} {
		f, err := ParseFormat(s)
		require.NoError(t, err, s)
		e, err := ForFormat(f, nil)
		require.NoError(t, err)
		assert.Equal(t, f, e.Format())
	}
	_, err := ParseFormat("docx")
	assert.Error(t, err)

	in := Input{Topic: "Solar Energy"}
	assert.Equal(t, "solar-energy.pdf", Filename(in, FormatPDF))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
