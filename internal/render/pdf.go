package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/m-mizutani/goerr/v2"

	"github.com/thywilljoshua/reportgen/internal/report"
)

const (
	DefaultTitle = "Academic Research Report"
	footerText   = "Generated with StudyAI Academic Report Generator"

	// figure box heights in mm
	imageBoxHeight = 60.0
	graphBoxHeight = 70.0
	maxFigureH     = 110.0

	// embedded images are downscaled to at most this many pixels per side
	maxImagePixels = 1600
)

var (
	emphasisMarks = regexp.MustCompile("\\*\\*|__|`")
	bulletPrefix  = regexp.MustCompile(`^(\s*)[-*+] `)
)

type rgb struct{ r, g, b int }

var (
	navy      = rgb{0x1a, 0x36, 0x5d}
	textDark  = rgb{0x1f, 0x29, 0x37}
	textMuted = rgb{0x6b, 0x72, 0x80}
	border    = rgb{0xe5, 0xe7, 0xeb}
	codeFill  = rgb{0xf3, 0xf4, 0xf6}
	boxFill   = rgb{0xe5, 0xe7, 0xeb}
)

// PDFExporter lays a transformed report out as an A4 academic document: a
// cover page followed by content pages with running header and footer.
type PDFExporter struct {
	pageWidth    float64
	pageHeight   float64
	margin       float64
	contentWidth float64

	fetcher ImageFetcher
	logger  *slog.Logger
}

// NewPDFExporter creates a PDF exporter. Remote figure images are only
// embedded when fetcher is not nil.
func NewPDFExporter(fetcher ImageFetcher, logger *slog.Logger) *PDFExporter {
	if logger == nil {
		logger = slog.Default()
	}
	margin := 20.0
	pageWidth := 210.0
	return &PDFExporter{
		pageWidth:    pageWidth,
		pageHeight:   297.0,
		margin:       margin,
		contentWidth: pageWidth - 2*margin,
		fetcher:      fetcher,
		logger:       logger,
	}
}

func (e *PDFExporter) Format() Format { return FormatPDF }

// pdfDoc bundles the fpdf document with the cp1252 translator of the core
// fonts.
type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (e *PDFExporter) Export(ctx context.Context, in Input, w io.Writer) (int64, error) {
	title := strings.TrimSpace(in.Topic)
	if title == "" {
		title = DefaultTitle
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	f := fpdf.New("P", "mm", "A4", "")
	pdf := &pdfDoc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle(title, true)
	pdf.SetCreator("reportgen", true)
	pdf.SetMargins(e.margin, 25, e.margin)
	pdf.SetAutoPageBreak(true, 22)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		e.addHeader(pdf, title)
	})
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		e.addFooter(pdf)
	})

	e.addCoverPage(pdf, title, date)

	pdf.AddPage()
	for _, b := range in.Document.Blocks {
		if err := ctx.Err(); err != nil {
			return 0, goerr.Wrap(err, "pdf export cancelled")
		}
		switch v := b.(type) {
		case report.Heading:
			e.addHeading(pdf, v)
		case report.Paragraph:
			e.addParagraph(pdf, v)
		case report.CodeListing:
			e.addListing(pdf, v)
		case report.Figure:
			e.addFigure(ctx, pdf, v)
		}
	}

	if err := pdf.Error(); err != nil {
		return 0, goerr.Wrap(err, "pdf generation error")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, goerr.Wrap(err, "pdf output error")
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), goerr.Wrap(err, "failed to write pdf")
	}
	return int64(n), nil
}

// =============================================================================
// Page furniture
// =============================================================================

func (e *PDFExporter) addCoverPage(pdf *pdfDoc, title string, date time.Time) {
	pdf.AddPage()
	center := e.pageWidth / 2

	pdf.SetFillColor(navy.r, navy.g, navy.b)
	pdf.Circle(center, 65, 20, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(center-20, 62)
	pdf.CellFormat(40, 6, "University Logo", "", 0, "C", false, 0, "")

	pdf.SetTextColor(navy.r, navy.g, navy.b)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(e.margin, 105)
	pdf.MultiCell(e.contentWidth, 11, pdf.tr(title), "", "C", false)

	pdf.Ln(6)
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.SetFont("Helvetica", "I", 14)
	pdf.CellFormat(e.contentWidth, 8, "An Academic Research Report", "", 1, "C", false, 0, "")

	pdf.SetTextColor(textDark.r, textDark.g, textDark.b)
	pdf.SetXY(e.margin, 190)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(e.contentWidth, 8, "Prepared by:", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(e.contentWidth, 7, "Student Name", "", 1, "C", false, 0, "")
	pdf.CellFormat(e.contentWidth, 7, "Course Name (Course Code)", "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.CellFormat(e.contentWidth, 7, "Submission Date: "+date.Format("January 2, 2006"), "", 1, "C", false, 0, "")
}

func (e *PDFExporter) addHeader(pdf *pdfDoc, title string) {
	pdf.SetY(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.CellFormat(e.contentWidth, 6, pdf.tr(title), "", 0, "L", false, 0, "")
	pdf.SetDrawColor(border.r, border.g, border.b)
	pdf.Line(e.margin, 17, e.pageWidth-e.margin, 17)
	pdf.SetY(25)
}

func (e *PDFExporter) addFooter(pdf *pdfDoc) {
	pdf.SetY(-15)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.CellFormat(e.contentWidth/2, 10, footerText, "", 0, "L", false, 0, "")
	pdf.CellFormat(e.contentWidth/2, 10, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// =============================================================================
// Blocks
// =============================================================================

// ensureSpace starts a new page unless h mm fit above the bottom margin.
func (e *PDFExporter) ensureSpace(pdf *pdfDoc, h float64) {
	if pdf.GetY()+h > e.pageHeight-22 {
		pdf.AddPage()
	}
}

func (e *PDFExporter) addHeading(pdf *pdfDoc, h report.Heading) {
	pdf.SetTextColor(navy.r, navy.g, navy.b)
	if h.Level == 1 {
		e.ensureSpace(pdf, 30)
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(e.contentWidth, 8, pdf.tr(inlineText(h.Text)), "", "L", false)
		pdf.SetDrawColor(navy.r, navy.g, navy.b)
		pdf.Line(e.margin, pdf.GetY()+1, e.pageWidth-e.margin, pdf.GetY()+1)
		pdf.Ln(5)
		return
	}
	e.ensureSpace(pdf, 24)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(e.contentWidth, 7, pdf.tr(inlineText(h.Text)), "", "L", false)
	pdf.Ln(2)
}

func (e *PDFExporter) addParagraph(pdf *pdfDoc, p report.Paragraph) {
	pdf.SetTextColor(textDark.r, textDark.g, textDark.b)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(e.contentWidth, 6, pdf.tr(inlineText(p.Text)), "", "J", false)
	pdf.Ln(2)
}

func (e *PDFExporter) addListing(pdf *pdfDoc, l report.CodeListing) {
	e.ensureSpace(pdf, 20)
	pdf.SetTextColor(textDark.r, textDark.g, textDark.b)
	pdf.SetFillColor(codeFill.r, codeFill.g, codeFill.b)
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(e.contentWidth, 4.5, pdf.tr(strings.TrimSuffix(l.Code, "\n")), "", "L", true)

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.CellFormat(e.contentWidth, 5, fmt.Sprintf("Listing %d", l.Number), "", 1, "C", false, 0, "")
	pdf.Ln(3)
}

func (e *PDFExporter) addFigure(ctx context.Context, pdf *pdfDoc, fig report.Figure) {
	name := fmt.Sprintf("figure-%d", fig.Number)
	if data, ok := e.figureImage(ctx, fig); ok && e.placeImage(pdf, name, data) {
		e.addCaption(pdf, fig)
		return
	}

	boxH := imageBoxHeight
	label := "[Image: " + fig.Caption + "]"
	if fig.Kind == report.FigureGraph {
		boxH = graphBoxHeight
		label = "[Graph: " + fig.Caption + "]"
	}
	e.ensureSpace(pdf, boxH+14)

	y := pdf.GetY() + 2
	pdf.SetFillColor(boxFill.r, boxFill.g, boxFill.b)
	pdf.Rect(e.margin, y, e.contentWidth, boxH, "F")
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetXY(e.margin+10, y+boxH/2-3)
	pdf.MultiCell(e.contentWidth-20, 5, pdf.tr(label), "", "C", false)
	pdf.SetY(y + boxH + 2)
	e.addCaption(pdf, fig)
}

func (e *PDFExporter) addCaption(pdf *pdfDoc, fig report.Figure) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(textMuted.r, textMuted.g, textMuted.b)
	pdf.MultiCell(e.contentWidth, 5, pdf.tr(fmt.Sprintf("Figure %d: %s", fig.Number, fig.Caption)), "", "C", false)
	pdf.Ln(4)
}

// figureImage returns the raw bytes behind a figure, if there are any to
// embed.
func (e *PDFExporter) figureImage(ctx context.Context, fig report.Figure) ([]byte, bool) {
	if fig.Asset == nil || fig.Asset.IsPlaceholder() {
		return nil, false
	}
	if fig.Asset.IsDataURI() {
		_, data, err := fig.Asset.Decode()
		if err != nil {
			e.logger.Warn("undecodable figure image", "figure", fig.Number, "error", err)
			return nil, false
		}
		return data, true
	}
	if e.fetcher == nil {
		return nil, false
	}
	data, err := e.fetcher.Fetch(ctx, fig.Asset.ImageURL)
	if err != nil {
		e.logger.Warn("failed to fetch figure image", "figure", fig.Number, "error", err)
		return nil, false
	}
	return data, true
}

// placeImage decodes, downsizes and embeds an image centred on the page. It
// reports false when the bytes are not a supported image.
func (e *PDFExporter) placeImage(pdf *pdfDoc, name string, data []byte) bool {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		e.logger.Warn("unsupported figure image", "name", name, "error", err)
		return false
	}
	img = imaging.Fit(img, maxImagePixels, maxImagePixels, imaging.Lanczos)

	var png bytes.Buffer
	if err := imaging.Encode(&png, img, imaging.PNG); err != nil {
		e.logger.Warn("failed to re-encode figure image", "name", name, "error", err)
		return false
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, &png)
	if pdf.Err() {
		return false
	}

	bounds := img.Bounds()
	w := e.contentWidth * 0.8
	h := w * float64(bounds.Dy()) / float64(bounds.Dx())
	if h > maxFigureH {
		w = w * maxFigureH / h
		h = maxFigureH
	}
	e.ensureSpace(pdf, h+14)

	y := pdf.GetY() + 2
	pdf.ImageOptions(name, (e.pageWidth-w)/2, y, w, h, false, opts, 0, "")
	pdf.SetY(y + h + 2)
	return true
}

// inlineText drops emphasis markers and turns list bullets into a bullet
// glyph for the core fonts.
func inlineText(s string) string {
	s = bulletPrefix.ReplaceAllString(s, "${1}• ")
	return emphasisMarks.ReplaceAllString(s, "")
}
