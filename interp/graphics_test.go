package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/graphics"
)

func TestPathTransformsThroughCTM(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "2 3 scale 10 10 moveto 20 10 lineto"))
	path := f.ctx.GS.Path
	require.Len(t, path, 2)
	assert.Equal(t, graphics.Segment{Kind: graphics.SegMove, X1: 20, Y1: 30}, path[0])
	assert.Equal(t, graphics.Segment{Kind: graphics.SegLine, X1: 40, Y1: 30}, path[1])
}

func TestTranslateThenPath(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "5 7 translate 0 0 moveto"))
	path := f.ctx.GS.Path
	require.Len(t, path, 1)
	assert.Equal(t, 5.0, path[0].X1)
	assert.Equal(t, 7.0, path[0].Y1)
}

func TestCurrentPointInUserSpace(t *testing.T) {
	out := evalOutput(t, "2 2 scale 10 20 moveto currentpoint == ==")
	assert.Equal(t, "20.0\n10.0\n", out)
}

func TestCurrentPointWithoutPath(t *testing.T) {
	evalError(t, "currentpoint", "nocurrentpoint")
}

func TestGsaveGrestoreRoundTrip(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t,
		"2 setlinewidth gsave 9 setlinewidth 1 setlinecap grestore currentlinewidth == currentlinecap =="))
	assert.Equal(t, "2.0\n0\n", f.out.String())
}

func TestGrestoreAllStopsAtSaveBoundary(t *testing.T) {
	out := evalOutput(t, "1 setlinewidth gsave 2 setlinewidth gsave 3 setlinewidth grestoreall currentlinewidth ==")
	assert.Equal(t, "1.0\n", out)
}

func TestNewpathClearsPath(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "0 0 moveto 5 5 lineto newpath"))
	assert.Empty(t, f.ctx.GS.Path)
	assert.False(t, f.ctx.GS.HasCurrent)
}

func TestFillClearsPath(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "0 0 moveto 5 0 lineto 5 5 lineto closepath fill"))
	assert.Empty(t, f.ctx.GS.Path)
}

func TestStrokeElementCarriesLineState(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t,
		"4 setlinewidth 1 setlinecap 2 setlinejoin 5 setmiterlimit [2 1] 0 setdash 0 0 moveto 10 0 lineto stroke showpage"))
	require.Len(t, f.dev.pages, 1)
	var stroke *graphics.Stroke
	for _, e := range f.dev.pages[0] {
		if s, ok := e.(graphics.Stroke); ok {
			stroke = &s
		}
	}
	require.NotNil(t, stroke, "display list must contain a Stroke")
	assert.Equal(t, 4.0, stroke.Width)
	assert.Equal(t, int64(1), stroke.Cap)
	assert.Equal(t, int64(2), stroke.Join)
	assert.Equal(t, 5.0, stroke.MiterLimit)
	assert.Equal(t, []float64{2, 1}, stroke.Dash)
}

func TestClipEmittedOnPaintAfterChange(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t,
		"0 0 moveto 50 0 lineto 50 50 lineto closepath clip newpath 0 0 moveto 10 0 lineto 10 10 lineto closepath fill showpage"))
	require.Len(t, f.dev.pages, 1)
	elems := f.dev.pages[0]
	clip, ok := elems[0].(graphics.ClipElement)
	require.True(t, ok, "first element should be the clip update, got %T", elems[0])
	assert.Equal(t, 4, len(clip.Path))
	assert.Greater(t, clip.Version, 0)
}

func TestClipReemittedAfterGrestore(t *testing.T) {
	f := newFixture()
	src := `
0 0 moveto 40 0 lineto 40 40 lineto closepath clip newpath
gsave
0 0 moveto 20 0 lineto 20 20 lineto closepath clip newpath
0 0 moveto 5 0 lineto 5 5 lineto closepath fill
grestore
0 0 moveto 6 0 lineto 6 6 lineto closepath fill
showpage`
	require.NoError(t, f.run(t, src))
	require.Len(t, f.dev.pages, 1)
	var versions []int
	for _, e := range f.dev.pages[0] {
		if c, ok := e.(graphics.ClipElement); ok {
			versions = append(versions, c.Version)
		}
	}
	// The inner clip paints first, then the grestore exposes the outer
	// clip again for the second fill.
	require.Len(t, versions, 2)
	assert.Greater(t, versions[0], versions[1],
		"second clip element re-emits the older outer clip")
}

func TestRectfillEmitsRectPath(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "10 20 30 40 rectfill showpage"))
	elems := f.dev.pages[0]
	mv, ok := elems[0].(graphics.MoveTo)
	require.True(t, ok)
	assert.Equal(t, graphics.MoveTo{X: 10, Y: 20}, mv)
	_, isFill := elems[4].(graphics.Fill)
	if !isFill {
		_, isClose := elems[4].(graphics.ClosePath)
		assert.True(t, isClose)
	}
}

func TestArcProducesCurves(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "100 100 50 0 90 arc"))
	path := f.ctx.GS.Path
	require.NotEmpty(t, path)
	assert.Equal(t, graphics.SegMove, path[0].Kind)
	hasCurve := false
	for _, s := range path {
		if s.Kind == graphics.SegCurve {
			hasCurve = true
		}
	}
	assert.True(t, hasCurve, "arc should append curve segments")
	// The arc ends at (100, 150).
	last := path[len(path)-1]
	assert.InDelta(t, 100, last.X3, 1e-6)
	assert.InDelta(t, 150, last.Y3, 1e-6)
}

func TestPathBBox(t *testing.T) {
	out := evalOutput(t, "10 20 moveto 110 20 lineto 110 220 lineto closepath pathbbox == == == ==")
	assert.Equal(t, "220.0\n110.0\n20.0\n10.0\n", out)
}

func TestPathForAllReportsUserSpace(t *testing.T) {
	out := evalOutput(t, "2 2 scale 5 5 moveto 10 5 lineto { == == } { == == } { } { } pathforall")
	assert.Equal(t, "5.0\n5.0\n5.0\n10.0\n", out)
}

func TestTransformOperators(t *testing.T) {
	out := evalOutput(t, "10 20 transform == ==")
	assert.Equal(t, "20.0\n10.0\n", out)
	out = evalOutput(t, "2 4 scale 1 1 dtransform == ==")
	assert.Equal(t, "4.0\n2.0\n", out)
	out = evalOutput(t, "2 4 scale 2 4 itransform == ==")
	assert.Equal(t, "1.0\n1.0\n", out)
	out = evalOutput(t, "matrix identmatrix 4 get ==")
	assert.Equal(t, "0.0\n", out)
}

func TestColorConversions(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"0.5 setgray currentgray ==", "0.5\n"},
		{"1 0 0 setrgbcolor currentgray ==", "0.3\n"},
		{"0 1 0 setrgbcolor currentrgbcolor == == ==", "0.0\n1.0\n0.0\n"},
		{"0 0 0 1 setcmykcolor currentrgbcolor == == ==", "0.0\n0.0\n0.0\n"},
		{"1 0 0 0 setcmykcolor currentrgbcolor == == ==", "1.0\n1.0\n0.0\n"},
		{"/DeviceRGB setcolorspace 1 0 1 setcolor currentrgbcolor == == ==", "1.0\n0.0\n1.0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestIndexedColorSpace(t *testing.T) {
	out := evalOutput(t,
		"[/Indexed /DeviceRGB 1 <FF0000 00FF00>] setcolorspace 1 setcolor currentrgbcolor == == ==")
	assert.Equal(t, "0.0\n1.0\n0.0\n", out)
}

func TestSeparationTintTransform(t *testing.T) {
	out := evalOutput(t,
		"[/Separation /Spot /DeviceGray { 1 exch sub }] setcolorspace 1 setcolor currentgray ==")
	assert.Equal(t, "0.0\n", out)
}

func TestShowEmitsTextObj(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "/Helvetica findfont 12 scalefont setfont 10 20 moveto (Hi) show showpage"))
	var text *graphics.TextObj
	for _, e := range f.dev.pages[0] {
		if tx, ok := e.(graphics.TextObj); ok {
			text = &tx
		}
	}
	require.NotNil(t, text)
	assert.Equal(t, "Hi", text.Text)
	assert.Equal(t, "Helvetica", text.FontName)
	assert.InDelta(t, 12.0, text.Size, 1e-9)
	assert.Equal(t, 10.0, text.X)
	assert.Equal(t, 20.0, text.Y)
}

func TestShowAdvancesCurrentPoint(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "/F findfont 10 scalefont setfont 0 0 moveto (ab) show"))
	// Two glyphs at 0.6 advance ratio and size 10.
	assert.InDelta(t, 12.0, f.ctx.GS.CurX, 1e-9)
}

func TestStringWidth(t *testing.T) {
	out := evalOutput(t, "/F findfont 10 scalefont setfont (abc) stringwidth == ==")
	assert.Equal(t, "0.0\n18.0\n", out)
}

func TestGlyphPathsMode(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t,
		"<< /TextRenderingMode /GlyphPaths >> setpagedevice /F findfont 8 scalefont setfont 0 0 moveto (ok) show showpage"))
	glyphs := 0
	for _, e := range f.dev.pages[0] {
		if _, ok := e.(graphics.GlyphRef); ok {
			glyphs++
		}
	}
	assert.Equal(t, 2, glyphs)
}

func TestShowpageResetsState(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "5 setlinewidth 2 3 scale showpage currentlinewidth =="))
	assert.Equal(t, "1.0\n", f.out.String())
	assert.Equal(t, graphics.Identity(), f.ctx.GS.CTM)
}

func TestCopypageKeepsList(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "0 0 moveto 5 5 lineto stroke copypage copypage"))
	require.Len(t, f.dev.pages, 2)
	assert.Equal(t, len(f.dev.pages[0]), len(f.dev.pages[1]))
}

func TestSetPageDeviceMergesKeys(t *testing.T) {
	out := evalOutput(t,
		"<< /PageSize [300 400] >> setpagedevice currentpagedevice /PageSize get aload pop == ==")
	assert.Equal(t, "400\n300\n", out)
}

func TestImageElement(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "2 2 8 [2 0 0 2 0 0] <FF00FF00> image showpage"))
	var img *graphics.ImageElement
	for _, e := range f.dev.pages[0] {
		if im, ok := e.(graphics.ImageElement); ok {
			img = &im
		}
	}
	require.NotNil(t, img)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 8, img.Bits)
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0x00}, img.Data)
}

func TestImageMaskElement(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "1 0 0 setrgbcolor 2 2 true [2 0 0 2 0 0] <C0> imagemask showpage"))
	var mask *graphics.ImageMaskElement
	for _, e := range f.dev.pages[0] {
		if im, ok := e.(graphics.ImageMaskElement); ok {
			mask = &im
		}
	}
	require.NotNil(t, mask)
	assert.True(t, mask.Invert)
	assert.Equal(t, graphics.RGB{1, 0, 0}, mask.Color)
}

func TestInsidenessTesting(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"0 0 moveto 10 0 lineto 10 10 lineto 0 10 lineto closepath 5 5 infill ==", "true\n"},
		{"0 0 moveto 10 0 lineto 10 10 lineto 0 10 lineto closepath 15 5 infill ==", "false\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestShadingPatternFill(t *testing.T) {
	f := newFixture()
	src := `<< /PatternType 2 /Shading << /ShadingType 2 /Coords [0 0 1 1] >> >> matrix makepattern
setpattern 0 0 moveto 10 0 lineto 10 10 lineto closepath fill showpage`
	require.NoError(t, f.run(t, src))
	found := false
	for _, e := range f.dev.pages[0] {
		if _, ok := e.(graphics.AxialShadingFill); ok {
			found = true
		}
	}
	assert.True(t, found, "axial shading fill expected in display list")
}

func TestHalftoneStorage(t *testing.T) {
	out := evalOutput(t, "<< /HalftoneType 3 >> sethalftone currenthalftone /HalftoneType get ==")
	assert.Equal(t, "3\n", out)
	evalError(t, "<< /HalftoneType 9 >> sethalftone", "rangecheck")
}

func TestTransferStorage(t *testing.T) {
	// Transfer functions are stored, not applied at build time.
	out := evalOutput(t, "{ 1 exch sub } settransfer 0.25 currenttransfer exec ==")
	assert.Equal(t, "0.75\n", out)
}
