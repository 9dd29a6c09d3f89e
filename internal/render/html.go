package render

import (
	"bytes"
	"context"
	"html/template"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/thywilljoshua/reportgen/internal/report"
)

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 820px; margin: 2rem auto; color: #1f2937; line-height: 1.6; }
h1, h2 { color: #1a365d; }
pre { background: #f3f4f6; padding: 1rem; overflow-x: auto; }
.gallery { display: grid; grid-template-columns: repeat(auto-fill, minmax(240px, 1fr)); gap: 1rem; }
.gallery figure { margin: 0; border: 1px solid #e5e7eb; border-radius: 6px; overflow: hidden; }
.gallery img { width: 100%; display: block; }
.gallery figcaption { padding: .5rem; font-size: .85rem; }
.badge { display: inline-block; padding: 0 .4rem; border-radius: 4px; font-size: .75rem; color: #fff; }
.badge.generated { background: #065f46; }
.badge.placeholder { background: #6b7280; }
.notice { background: #fef3c7; padding: .75rem; border-radius: 6px; }
</style>
</head>
<body>
<article class="report">
{{.Body}}
</article>
{{- if .Images}}
<section class="images">
<h2>AI-Generated Images</h2>
{{- if .HasPlaceholder}}
<p class="notice">Some images could not be generated and are shown as placeholders.</p>
{{- end}}
<div class="gallery">
{{- range .Images}}
<figure>
<img src="{{.URL}}" alt="{{.Prompt}}">
<figcaption>{{if .Placeholder}}<span class="badge placeholder">Placeholder</span>{{else}}<span class="badge generated">AI Generated</span>{{end}} {{.Prompt}}</figcaption>
</figure>
{{- end}}
</div>
</section>
{{- end}}
</body>
</html>
`))

type galleryImage struct {
	URL         template.URL
	Prompt      string
	Placeholder bool
}

type previewData struct {
	Title          string
	Body           template.HTML
	Images         []galleryImage
	HasPlaceholder bool
}

// HTMLExporter renders the on-screen preview: the Markdown as HTML followed by
// a gallery of every acquired image.
type HTMLExporter struct {
	md goldmark.Markdown
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (e *HTMLExporter) Format() Format { return FormatHTML }

func (e *HTMLExporter) Export(ctx context.Context, in Input, w io.Writer) (int64, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(in.Content), &body); err != nil {
		return 0, goerr.Wrap(err, "failed to convert markdown")
	}

	title := in.Topic
	if title == "" {
		title = DefaultTitle
	}
	data := previewData{
		Title: title,
		Body:  template.HTML(body.String()),
	}
	for _, a := range in.Document.Assets {
		data.Images = append(data.Images, galleryImage{
			URL:         imageSrc(a),
			Prompt:      a.Prompt,
			Placeholder: a.IsPlaceholder(),
		})
		if a.IsPlaceholder() {
			data.HasPlaceholder = true
		}
	}

	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, data); err != nil {
		return 0, goerr.Wrap(err, "failed to render preview")
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), goerr.Wrap(err, "failed to write preview")
	}
	return int64(n), nil
}

// imageSrc marks generated data URIs as safe; html/template would otherwise
// replace them with #ZgotmplZ.
func imageSrc(a report.Asset) template.URL {
	return template.URL(a.ImageURL)
}
