// Package render turns a generated report into its output forms: a
// paginated PDF, the raw Markdown and an HTML preview page.
package render

import (
	"context"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/thywilljoshua/reportgen/internal/report"
)

type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatMarkdown, FormatHTML:
		return Format(s), nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", goerr.New("unknown export format", goerr.V("format", s))
}

// Input is everything an exporter needs about one report.
type Input struct {
	Topic    string
	Date     time.Time
	Content  string
	Document report.Document
}

// NewInput transforms content against assets and packs the result.
func NewInput(topic, content string, assets []report.Asset, date time.Time) Input {
	return Input{
		Topic:    topic,
		Date:     date,
		Content:  content,
		Document: report.Transform(content, assets),
	}
}

// Exporter writes one rendition of a report and returns the bytes written.
type Exporter interface {
	Export(ctx context.Context, in Input, w io.Writer) (int64, error)
	Format() Format
}

// ForFormat returns the exporter for f. fetcher may be nil.
func ForFormat(f Format, fetcher ImageFetcher) (Exporter, error) {
	switch f {
	case FormatPDF:
		return NewPDFExporter(fetcher, nil), nil
	case FormatMarkdown:
		return MarkdownExporter{}, nil
	case FormatHTML:
		return NewHTMLExporter(), nil
	}
	return nil, goerr.New("unknown export format", goerr.V("format", f))
}

// Filename is the download name for in rendered as f.
func Filename(in Input, f Format) string {
	return report.ExportFilename(in.Topic, string(f))
}

// MarkdownExporter writes the generated text unmodified.
type MarkdownExporter struct{}

func (MarkdownExporter) Format() Format { return FormatMarkdown }

func (MarkdownExporter) Export(ctx context.Context, in Input, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, in.Content)
	if err != nil {
		return int64(n), goerr.Wrap(err, "failed to write markdown")
	}
	return int64(n), nil
}
