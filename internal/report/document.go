package report

// Block is one element of a transformed report. The concrete types are
// Heading, Paragraph, CodeListing and Figure.
type Block interface {
	block()
}

type Heading struct {
	Level int
	Text  string
}

type Paragraph struct {
	Text string
}

// CodeListing is a fenced region. Code keeps every line followed by a newline.
type CodeListing struct {
	Code   string
	Number int
}

type FigureKind int

const (
	FigureImage FigureKind = iota
	FigureGraph
)

// Figure marks where a visual belongs. Asset is nil when no generated image
// backs it: graphs, or image markers past the end of the asset list.
type Figure struct {
	Kind    FigureKind
	Caption string
	Number  int
	Asset   *Asset
}

func (Heading) block()     {}
func (Paragraph) block()   {}
func (CodeListing) block() {}
func (Figure) block()      {}

type Document struct {
	Blocks []Block
	// Assets is the list the figures were matched against, in order.
	Assets     []Asset
	AssetsUsed int
	// LastNumber is the highest sequence number handed out, 0 if none.
	LastNumber int
}

// UnusedAssets returns the assets no [Image: ...] marker consumed.
func (d Document) UnusedAssets() []Asset {
	if d.AssetsUsed >= len(d.Assets) {
		return nil
	}
	return d.Assets[d.AssetsUsed:]
}

func (d Document) Figures() []Figure {
	var out []Figure
	for _, b := range d.Blocks {
		if f, ok := b.(Figure); ok {
			out = append(out, f)
		}
	}
	return out
}
