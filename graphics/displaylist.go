package graphics

import "github.com/postforge/postforge/object"

// FillRule selects the insideness rule for fills and clips.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

// RGB is a device color resolved by the color engine.
type RGB [3]float64

// Element is one display-list entry. The display list is the device
// handoff format: a flat ordered list of typed painting elements.
type Element interface {
	element()
}

type MoveTo struct{ X, Y float64 }
type LineTo struct{ X, Y float64 }
type CurveTo struct{ X1, Y1, X2, Y2, X3, Y3 float64 }
type ClosePath struct{}

// Fill paints the preceding path elements.
type Fill struct {
	Color RGB
	Rule  FillRule
}

// Stroke paints the preceding path elements as a line.
type Stroke struct {
	Color      RGB
	Width      float64
	Cap, Join  int64
	MiterLimit float64
	Dash       []float64
	DashOffset float64
}

// PatternFill paints the preceding path with a pattern cell.
type PatternFill struct {
	Pattern object.Object // pattern instance dictionary
	Under   RGB           // resolved underlying color for uncolored patterns
	Rule    FillRule
}

// ClipElement instructs the renderer to replace its clip region. Version
// is the builder's monotone clip counter.
type ClipElement struct {
	Path    Path
	Rule    FillRule
	Version int
}

// ImageElement is a sampled image in the current color space. The builder
// stores the raw samples as given; they are not converted to RGB.
type ImageElement struct {
	Width, Height int
	Bits          int
	Matrix        Matrix // image space -> user space
	CTM           Matrix // user space -> device space at paint time
	Data          []byte // raw samples, row major
	Decode        []float64
	NComp         int
}

// ImageMaskElement paints the current color through a 1-bit stencil.
type ImageMaskElement struct {
	Width, Height int
	Matrix        Matrix
	CTM           Matrix
	Data          []byte
	Invert        bool
	Color         RGB
}

// ColorImageElement is a multi-component image with explicit component
// count (colorimage).
type ColorImageElement struct {
	Width, Height int
	Bits          int
	Matrix        Matrix
	CTM           Matrix
	Data          []byte
	NComp         int
}

// TextObj preserves structured text for devices that keep text
// searchable (TextRenderingMode /TextObjs).
type TextObj struct {
	FontName string
	Size     float64
	X, Y     float64 // baseline origin, device space
	Text     string
	Color    RGB
	CTM      Matrix
}

// Glyph markers bracket glyph-path expansions (TextRenderingMode
// /GlyphPaths). Path interpretation itself is the renderer's concern.
type GlyphStart struct {
	FontName string
	Code     rune
	X, Y     float64
}
type GlyphEnd struct{}
type GlyphRef struct {
	FontName string
	Code     rune
	X, Y     float64
	Size     float64
	Color    RGB
}

type ActualTextStart struct{ Text string }
type ActualTextEnd struct{}

// Shading fills cover the stored-parameter shading variants.
type AxialShadingFill struct {
	Dict object.Object
	CTM  Matrix
}
type RadialShadingFill struct {
	Dict object.Object
	CTM  Matrix
}
type MeshShadingFill struct {
	Dict object.Object
	CTM  Matrix
}
type PatchShadingFill struct {
	Dict object.Object
	CTM  Matrix
}
type FunctionShadingFill struct {
	Dict object.Object
	CTM  Matrix
}

// ErasePage marks the page-clear emitted by erasepage and showpage.
type ErasePage struct{}

func (MoveTo) element()              {}
func (LineTo) element()              {}
func (CurveTo) element()             {}
func (ClosePath) element()           {}
func (Fill) element()                {}
func (Stroke) element()              {}
func (PatternFill) element()         {}
func (ClipElement) element()         {}
func (ImageElement) element()        {}
func (ImageMaskElement) element()    {}
func (ColorImageElement) element()   {}
func (TextObj) element()             {}
func (GlyphStart) element()          {}
func (GlyphEnd) element()            {}
func (GlyphRef) element()            {}
func (ActualTextStart) element()     {}
func (ActualTextEnd) element()       {}
func (AxialShadingFill) element()    {}
func (RadialShadingFill) element()   {}
func (MeshShadingFill) element()     {}
func (PatchShadingFill) element()    {}
func (FunctionShadingFill) element() {}
func (ErasePage) element()           {}

// DisplayList accumulates the painted content of one page.
type DisplayList struct {
	Elements []Element

	emittedClip int
}

// Append adds one element.
func (dl *DisplayList) Append(e Element) {
	dl.Elements = append(dl.Elements, e)
}

// SyncClip re-emits the clip when the state's clip version differs from
// the last one the renderer has seen. Called by every painting operator
// before it appends, so grestore-exposed older clips reach the device.
func (dl *DisplayList) SyncClip(st *State) {
	if st.ClipVersion == dl.emittedClip {
		return
	}
	dl.Append(ClipElement{Path: st.Clip.Clone(), Rule: st.ClipRule, Version: st.ClipVersion})
	dl.emittedClip = st.ClipVersion
}

// AppendPath emits the path as Move/Line/Curve/Close elements.
func (dl *DisplayList) AppendPath(p Path) {
	for _, s := range p {
		switch s.Kind {
		case SegMove:
			dl.Append(MoveTo{X: s.X1, Y: s.Y1})
		case SegLine:
			dl.Append(LineTo{X: s.X1, Y: s.Y1})
		case SegCurve:
			dl.Append(CurveTo{X1: s.X1, Y1: s.Y1, X2: s.X2, Y2: s.Y2, X3: s.X3, Y3: s.Y3})
		case SegClose:
			dl.Append(ClosePath{})
		}
	}
}

// Reset clears the list for the next page.
func (dl *DisplayList) Reset() {
	dl.Elements = nil
	dl.emittedClip = 0
}
