package graphics

import (
	"math"

	"github.com/postforge/postforge/object"
)

// SpaceKind enumerates the supported color space families.
type SpaceKind uint8

const (
	DeviceGray SpaceKind = iota
	DeviceRGB
	DeviceCMYK
	CIEBasedA
	CIEBasedABC
	CIEBasedDEF
	CIEBasedDEFG
	ICCBased
	Indexed
	Separation
	DeviceN
	Pattern
)

var spaceNames = map[SpaceKind]string{
	DeviceGray:   "DeviceGray",
	DeviceRGB:    "DeviceRGB",
	DeviceCMYK:   "DeviceCMYK",
	CIEBasedA:    "CIEBasedA",
	CIEBasedABC:  "CIEBasedABC",
	CIEBasedDEF:  "CIEBasedDEF",
	CIEBasedDEFG: "CIEBasedDEFG",
	ICCBased:     "ICCBased",
	Indexed:      "Indexed",
	Separation:   "Separation",
	DeviceN:      "DeviceN",
	Pattern:      "Pattern",
}

// Name returns the PostScript family name.
func (k SpaceKind) Name() string { return spaceNames[k] }

// ProcEval runs a PostScript procedure with numeric inputs and collects
// nout numeric results. The interpreter supplies it so tint transforms
// and CIE decode procedures can execute during lazy conversion.
type ProcEval func(proc object.Object, in []float64, nout int) ([]float64, error)

// Table3 is a sampled 3-in/3-out lookup table for CIEBasedDEF.
type Table3 struct {
	Nh, Ni, Nj int
	Data       []byte // 3 bytes per entry, j fastest
}

// Table4 is the 4-in variant for CIEBasedDEFG.
type Table4 struct {
	Nh, Ni, Nj, Nk int
	Data           []byte
}

// ColorSpace is the parsed form of a setcolorspace operand.
type ColorSpace struct {
	Kind  SpaceKind
	NComp int

	// CIE parameters. Decode entries are PostScript procedures; nil
	// slices mean identity. Matrices are row-major 3x3 (MatrixA is the
	// single row for CIEBasedA).
	WhitePoint [3]float64
	RangeIn    []float64 // RangeA / RangeABC / RangeDEF / RangeDEFG
	DecodeIn   []object.Object
	MatrixIn   []float64 // MatrixA (3) or MatrixABC (9)
	DecodeLMN  []object.Object
	MatrixLMN  []float64
	Table      *Table3
	Table4     *Table4
	RangeABC   []float64 // post-table component ranges for DEF/DEFG

	// Indexed
	HiVal        int
	PaletteBytes []byte        // resolved string palette
	PaletteProc  object.Object // procedure palette

	// Separation / DeviceN
	Tint object.Object

	// Base is the Indexed base space; Alt is the Separation/DeviceN/ICC
	// alternative space.
	Base *ColorSpace
	Alt  *ColorSpace

	// Under is the underlying space for uncolored patterns.
	Under *ColorSpace

	// Obj is the operand setcolorspace received, reported back by
	// currentcolorspace.
	Obj object.Object
}

// Color is the current color: a space plus components, or a pattern.
type Color struct {
	Space   *ColorSpace
	Comp    []float64
	Pattern object.Object
	HasPat  bool
}

// InitialComponents returns the default color components for a space.
func (cs *ColorSpace) InitialComponents() []float64 {
	switch cs.Kind {
	case DeviceCMYK:
		return []float64{0, 0, 0, 1}
	case Indexed:
		return []float64{0}
	default:
		out := make([]float64, cs.NComp)
		return out
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// GrayToRGB expands a gray level.
func GrayToRGB(g float64) RGB {
	g = clamp01(g)
	return RGB{g, g, g}
}

// RGBToGray applies the NTSC weighting.
func RGBToGray(c RGB) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

// CMYKToRGB applies the PLRM undercolor formula.
func CMYKToRGB(c, m, y, k float64) RGB {
	return RGB{
		1 - math.Min(1, c+k),
		1 - math.Min(1, m+k),
		1 - math.Min(1, y+k),
	}
}

// RGBToCMYK is the PLRM conversion with full undercolor removal.
func RGBToCMYK(c RGB) (float64, float64, float64, float64) {
	cy := 1 - c[0]
	ma := 1 - c[1]
	ye := 1 - c[2]
	k := math.Min(cy, math.Min(ma, ye))
	return cy - k, ma - k, ye - k, k
}

// ToRGB lazily resolves the color to device RGB. eval runs PostScript
// procedures (tint transforms, CIE decodes); it may be nil when the
// space needs none.
func (c Color) ToRGB(eval ProcEval) (RGB, error) {
	return convert(c.Space, c.Comp, eval)
}

func convert(cs *ColorSpace, comp []float64, eval ProcEval) (RGB, error) {
	if cs == nil {
		return RGB{0, 0, 0}, nil
	}
	switch cs.Kind {
	case DeviceGray:
		return GrayToRGB(at(comp, 0)), nil
	case DeviceRGB:
		return RGB{clamp01(at(comp, 0)), clamp01(at(comp, 1)), clamp01(at(comp, 2))}, nil
	case DeviceCMYK:
		return CMYKToRGB(at(comp, 0), at(comp, 1), at(comp, 2), at(comp, 3)), nil
	case CIEBasedA, CIEBasedABC:
		return cs.cieToRGB(comp, eval)
	case CIEBasedDEF:
		return cs.defToRGB(comp, eval)
	case CIEBasedDEFG:
		return cs.defgToRGB(comp, eval)
	case ICCBased:
		// Profile transforms are an external collaborator; fall back to
		// the declared alternate, or a device space matching N.
		if cs.Alt != nil {
			return convert(cs.Alt, comp, eval)
		}
		switch cs.NComp {
		case 1:
			return GrayToRGB(at(comp, 0)), nil
		case 4:
			return CMYKToRGB(at(comp, 0), at(comp, 1), at(comp, 2), at(comp, 3)), nil
		default:
			return RGB{clamp01(at(comp, 0)), clamp01(at(comp, 1)), clamp01(at(comp, 2))}, nil
		}
	case Indexed:
		return cs.indexedToRGB(comp, eval)
	case Separation, DeviceN:
		if eval == nil || cs.Alt == nil {
			return RGB{0, 0, 0}, nil
		}
		out, err := eval(cs.Tint, comp, cs.Alt.NComp)
		if err != nil {
			return RGB{}, err
		}
		return convert(cs.Alt, out, eval)
	case Pattern:
		if cs.Under != nil {
			return convert(cs.Under, comp, eval)
		}
		return RGB{0, 0, 0}, nil
	}
	return RGB{0, 0, 0}, nil
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func (cs *ColorSpace) indexedToRGB(comp []float64, eval ProcEval) (RGB, error) {
	idx := int(at(comp, 0))
	if idx < 0 {
		idx = 0
	}
	if idx > cs.HiVal {
		idx = cs.HiVal
	}
	n := cs.Base.NComp
	base := make([]float64, n)
	if cs.PaletteBytes != nil {
		for i := 0; i < n; i++ {
			p := idx*n + i
			if p < len(cs.PaletteBytes) {
				base[i] = float64(cs.PaletteBytes[p]) / 255
			}
		}
	} else if eval != nil {
		out, err := eval(cs.PaletteProc, []float64{float64(idx)}, n)
		if err != nil {
			return RGB{}, err
		}
		base = out
	}
	return convert(cs.Base, base, eval)
}

// cieToRGB runs the decode -> matrix -> XYZ -> sRGB pipeline shared by
// CIEBasedA and CIEBasedABC.
func (cs *ColorSpace) cieToRGB(comp []float64, eval ProcEval) (RGB, error) {
	in := append([]float64(nil), comp...)
	in = clampRanges(in, cs.RangeIn)
	var err error
	if in, err = runDecodes(cs.DecodeIn, in, eval); err != nil {
		return RGB{}, err
	}
	var lmn [3]float64
	if cs.Kind == CIEBasedA {
		a := at(in, 0)
		m := cs.MatrixIn
		if m == nil {
			m = []float64{1, 1, 1}
		}
		lmn = [3]float64{a * m[0], a * m[1], a * m[2]}
	} else {
		m := cs.MatrixIn
		if m == nil {
			m = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
		}
		lmn = mat3Apply(m, at(in, 0), at(in, 1), at(in, 2))
	}
	dl := lmn[:]
	if dl, err = runDecodes(cs.DecodeLMN, dl, eval); err != nil {
		return RGB{}, err
	}
	mlmn := cs.MatrixLMN
	if mlmn == nil {
		mlmn = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	xyz := mat3Apply(mlmn, at(dl, 0), at(dl, 1), at(dl, 2))
	return xyzToSRGB(xyz), nil
}

func (cs *ColorSpace) defToRGB(comp []float64, eval ProcEval) (RGB, error) {
	in := clampRanges(append([]float64(nil), comp...), cs.RangeIn)
	in, err := runDecodes(cs.DecodeIn, in, eval)
	if err != nil {
		return RGB{}, err
	}
	abc := in
	if t := cs.Table; t != nil {
		h := sampleIndex(at(in, 0), t.Nh)
		i := sampleIndex(at(in, 1), t.Ni)
		j := sampleIndex(at(in, 2), t.Nj)
		p := ((h*t.Ni+i)*t.Nj + j) * 3
		abc = tableEntry(t.Data, p, cs.RangeABC)
	}
	sub := *cs
	sub.Kind = CIEBasedABC
	sub.DecodeIn = nil
	sub.RangeIn = cs.RangeABC
	sub.Table = nil
	return sub.cieToRGB(abc, eval)
}

func (cs *ColorSpace) defgToRGB(comp []float64, eval ProcEval) (RGB, error) {
	in := clampRanges(append([]float64(nil), comp...), cs.RangeIn)
	in, err := runDecodes(cs.DecodeIn, in, eval)
	if err != nil {
		return RGB{}, err
	}
	abc := in[:min(3, len(in))]
	if t := cs.Table4; t != nil {
		h := sampleIndex(at(in, 0), t.Nh)
		i := sampleIndex(at(in, 1), t.Ni)
		j := sampleIndex(at(in, 2), t.Nj)
		k := sampleIndex(at(in, 3), t.Nk)
		p := (((h*t.Ni+i)*t.Nj+j)*t.Nk + k) * 3
		abc = tableEntry(t.Data, p, cs.RangeABC)
	}
	sub := *cs
	sub.Kind = CIEBasedABC
	sub.DecodeIn = nil
	sub.RangeIn = cs.RangeABC
	sub.Table4 = nil
	return sub.cieToRGB(abc, eval)
}

func sampleIndex(v float64, n int) int {
	if n < 2 {
		return 0
	}
	i := int(math.Round(clamp01(v) * float64(n-1)))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

func tableEntry(data []byte, p int, rng []float64) []float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		var b byte
		if p+i < len(data) {
			b = data[p+i]
		}
		lo, hi := 0.0, 1.0
		if len(rng) >= 2*(i+1) {
			lo, hi = rng[2*i], rng[2*i+1]
		}
		out[i] = lo + float64(b)/255*(hi-lo)
	}
	return out
}

func clampRanges(v []float64, rng []float64) []float64 {
	for i := range v {
		if len(rng) >= 2*(i+1) {
			lo, hi := rng[2*i], rng[2*i+1]
			if v[i] < lo {
				v[i] = lo
			}
			if v[i] > hi {
				v[i] = hi
			}
		}
	}
	return v
}

func runDecodes(procs []object.Object, v []float64, eval ProcEval) ([]float64, error) {
	if procs == nil || eval == nil {
		return v, nil
	}
	out := append([]float64(nil), v...)
	for i := range out {
		if i >= len(procs) || procs[i].Type == object.Null {
			continue
		}
		r, err := eval(procs[i], []float64{out[i]}, 1)
		if err != nil {
			return nil, err
		}
		out[i] = r[0]
	}
	return out, nil
}

func mat3Apply(m []float64, a, b, c float64) [3]float64 {
	return [3]float64{
		m[0]*a + m[3]*b + m[6]*c,
		m[1]*a + m[4]*b + m[7]*c,
		m[2]*a + m[5]*b + m[8]*c,
	}
}

// xyzToSRGB converts CIE XYZ (D50-ish, no adaptation) to gamma-encoded
// sRGB.
func xyzToSRGB(xyz [3]float64) RGB {
	x, y, z := xyz[0], xyz[1], xyz[2]
	r := 3.2406*x - 1.5372*y - 0.4986*z
	g := -0.9689*x + 1.8758*y + 0.0415*z
	b := 0.0557*x - 0.2040*y + 1.0570*z
	return RGB{srgbGamma(r), srgbGamma(g), srgbGamma(b)}
}

func srgbGamma(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
