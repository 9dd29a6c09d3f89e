package report

import (
	"regexp"
	"strings"
)

const fence = "```"

var (
	imageMarkerRe = regexp.MustCompile(`(?i)\[Image:(.+?)\]`)
	graphMarkerRe = regexp.MustCompile(`(?i)\[Graph:(.+?)\]`)
)

// ScanState is the accumulator threaded through the line fold.
type ScanState struct {
	InCode bool
	// Code holds the lines of the open fenced region.
	Code []string
	// Next is the sequence number the next listing or figure receives.
	Next int
	// Cursor is the index of the next unconsumed asset.
	Cursor int
}

func NewScanState() ScanState {
	return ScanState{Next: 1}
}

// lineRule classifies a line outside code blocks. Rules are tried in order and
// the first match wins.
type lineRule struct {
	name  string
	match func(line string) (string, bool)
	emit  func(st ScanState, capture string, assets []Asset) (ScanState, Block)
}

var normalRules = []lineRule{
	{name: "image", match: markerMatcher(imageMarkerRe), emit: emitImage},
	{name: "graph", match: markerMatcher(graphMarkerRe), emit: emitGraph},
	{name: "heading1", match: headingMatcher("# "), emit: emitHeading(1)},
	{name: "heading2", match: headingMatcher("## "), emit: emitHeading(2)},
	{name: "paragraph", match: nonBlank, emit: emitParagraph},
}

func markerMatcher(re *regexp.Regexp) func(string) (string, bool) {
	return func(line string) (string, bool) {
		m := re.FindStringSubmatch(line)
		if len(m) != 2 {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	}
}

func headingMatcher(marker string) func(string) (string, bool) {
	return func(line string) (string, bool) {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, marker) {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(t, marker)), true
	}
}

func nonBlank(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	return line, true
}

func emitImage(st ScanState, caption string, assets []Asset) (ScanState, Block) {
	f := Figure{Kind: FigureImage, Caption: caption, Number: st.Next}
	if st.Cursor < len(assets) {
		a := assets[st.Cursor]
		f.Asset = &a
		st.Cursor++
	}
	st.Next++
	return st, f
}

func emitGraph(st ScanState, caption string, _ []Asset) (ScanState, Block) {
	f := Figure{Kind: FigureGraph, Caption: caption, Number: st.Next}
	st.Next++
	return st, f
}

func emitHeading(level int) func(ScanState, string, []Asset) (ScanState, Block) {
	return func(st ScanState, text string, _ []Asset) (ScanState, Block) {
		return st, Heading{Level: level, Text: text}
	}
}

func emitParagraph(st ScanState, line string, _ []Asset) (ScanState, Block) {
	return st, Paragraph{Text: line}
}

// Step consumes one line. The returned block is nil for blank lines, fence
// lines that open a region and lines buffered inside a region.
func (st ScanState) Step(line string, assets []Asset) (ScanState, Block) {
	t := strings.TrimSpace(line)
	if st.InCode {
		if strings.HasSuffix(t, fence) {
			return st.closeCode()
		}
		st.Code = append(st.Code, line)
		return st, nil
	}
	if strings.HasPrefix(t, fence) {
		st.InCode = true
		st.Code = nil
		return st, nil
	}
	for _, r := range normalRules {
		if capture, ok := r.match(line); ok {
			return r.emit(st, capture, assets)
		}
	}
	return st, nil
}

// Finish flushes a region whose closing fence never came.
func (st ScanState) Finish() (ScanState, Block) {
	if !st.InCode {
		return st, nil
	}
	return st.closeCode()
}

func (st ScanState) closeCode() (ScanState, Block) {
	var b strings.Builder
	for _, l := range st.Code {
		b.WriteString(l)
		b.WriteString("\n")
	}
	c := CodeListing{Code: b.String(), Number: st.Next}
	st.Next++
	st.InCode = false
	st.Code = nil
	return st, c
}

// Scan folds the lines into blocks and returns the final state.
func Scan(lines []string, assets []Asset) ([]Block, ScanState) {
	st := NewScanState()
	var blocks []Block
	var b Block
	for _, line := range lines {
		st, b = st.Step(line, assets)
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	st, b = st.Finish()
	if b != nil {
		blocks = append(blocks, b)
	}
	return blocks, st
}

// Transform turns generated report text and its acquired images into an
// ordered list of blocks. Images are matched to [Image: ...] markers purely
// by position.
func Transform(content string, assets []Asset) Document {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	blocks, st := Scan(lines, assets)
	return Document{
		Blocks:     blocks,
		Assets:     assets,
		AssetsUsed: st.Cursor,
		LastNumber: st.Next - 1,
	}
}
