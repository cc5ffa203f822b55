// Package dumpdevice writes display lists as deterministic text, one
// line per element. It is the offline backend: test oracles and debug
// output read it directly.
package dumpdevice

import (
	"fmt"
	"io"
	"strings"

	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

// Dump renders to an io.Writer.
type Dump struct {
	w     io.Writer
	pages int
}

// New returns a dump device writing to w.
func New(w io.Writer) *Dump {
	return &Dump{w: w}
}

func (d *Dump) Name() string { return "dump" }

func (d *Dump) ShowPage(vm *object.VM, dl *graphics.DisplayList, pageDevice object.Object) error {
	d.pages++
	info := device.DecodePage(vm, pageDevice)
	fmt.Fprintf(d.w, "%%page %d %gx%g\n", d.pages, info.Width, info.Height)
	for _, e := range dl.Elements {
		fmt.Fprintln(d.w, FormatElement(e))
	}
	return nil
}

func (d *Dump) Close() error { return nil }

// FormatElement renders one element as a stable text line.
func FormatElement(e graphics.Element) string {
	switch v := e.(type) {
	case graphics.MoveTo:
		return fmt.Sprintf("moveto %g %g", v.X, v.Y)
	case graphics.LineTo:
		return fmt.Sprintf("lineto %g %g", v.X, v.Y)
	case graphics.CurveTo:
		return fmt.Sprintf("curveto %g %g %g %g %g %g", v.X1, v.Y1, v.X2, v.Y2, v.X3, v.Y3)
	case graphics.ClosePath:
		return "closepath"
	case graphics.Fill:
		return fmt.Sprintf("fill %s rule=%s", rgb(v.Color), rule(v.Rule))
	case graphics.Stroke:
		return fmt.Sprintf("stroke %s width=%g cap=%d join=%d miter=%g dash=%v",
			rgb(v.Color), v.Width, v.Cap, v.Join, v.MiterLimit, v.Dash)
	case graphics.PatternFill:
		return fmt.Sprintf("patternfill under=%s rule=%s", rgb(v.Under), rule(v.Rule))
	case graphics.ClipElement:
		return fmt.Sprintf("clip v=%d rule=%s segs=%d", v.Version, rule(v.Rule), len(v.Path))
	case graphics.ImageElement:
		return fmt.Sprintf("image %dx%d bits=%d ncomp=%d", v.Width, v.Height, v.Bits, v.NComp)
	case graphics.ImageMaskElement:
		return fmt.Sprintf("imagemask %dx%d invert=%v %s", v.Width, v.Height, v.Invert, rgb(v.Color))
	case graphics.ColorImageElement:
		return fmt.Sprintf("colorimage %dx%d bits=%d ncomp=%d", v.Width, v.Height, v.Bits, v.NComp)
	case graphics.TextObj:
		return fmt.Sprintf("text (%s) font=%s size=%g at %g %g %s",
			escapeText(v.Text), v.FontName, v.Size, v.X, v.Y, rgb(v.Color))
	case graphics.GlyphRef:
		return fmt.Sprintf("glyph %q font=%s size=%g at %g %g", v.Code, v.FontName, v.Size, v.X, v.Y)
	case graphics.GlyphStart:
		return fmt.Sprintf("glyphstart %q font=%s at %g %g", v.Code, v.FontName, v.X, v.Y)
	case graphics.GlyphEnd:
		return "glyphend"
	case graphics.ActualTextStart:
		return fmt.Sprintf("actualtext (%s)", escapeText(v.Text))
	case graphics.ActualTextEnd:
		return "actualtextend"
	case graphics.AxialShadingFill:
		return "shading axial"
	case graphics.RadialShadingFill:
		return "shading radial"
	case graphics.MeshShadingFill:
		return "shading mesh"
	case graphics.PatchShadingFill:
		return "shading patch"
	case graphics.FunctionShadingFill:
		return "shading function"
	case graphics.ErasePage:
		return "erasepage"
	}
	return "unknown"
}

func rgb(c graphics.RGB) string {
	return fmt.Sprintf("rgb(%.3f,%.3f,%.3f)", c[0], c[1], c[2])
}

func rule(r graphics.FillRule) string {
	if r == graphics.EvenOdd {
		return "evenodd"
	}
	return "nonzero"
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "(", "\\(")
	return strings.ReplaceAll(s, ")", "\\)")
}
