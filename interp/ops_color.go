package interp

import (
	"math"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerColorOps(def defFunc) {
	def("setgray", opSetGray)
	def("currentgray", opCurrentGray)
	def("setrgbcolor", opSetRGBColor)
	def("currentrgbcolor", opCurrentRGBColor)
	def("sethsbcolor", opSetHSBColor)
	def("currenthsbcolor", opCurrentHSBColor)
	def("setcmykcolor", opSetCMYKColor)
	def("currentcmykcolor", opCurrentCMYKColor)
	def("setcolorspace", opSetColorSpace)
	def("currentcolorspace", opCurrentColorSpace)
	def("setcolor", opSetColor)
	def("currentcolor", opCurrentColor)
	def("settransfer", opSetTransfer)
	def("currenttransfer", opCurrentTransfer)
	def("setcolortransfer", opSetColorTransfer)
	def("setblackgeneration", opSetBlackGeneration)
	def("currentblackgeneration", opCurrentBlackGeneration)
	def("setundercolorremoval", opSetUndercolorRemoval)
	def("currentundercolorremoval", opCurrentUndercolorRemoval)
	def("sethalftone", opSetHalftone)
	def("currenthalftone", opCurrentHalftone)
	def("setscreen", opSetScreen)
	def("currentscreen", opCurrentScreen)
}

func deviceSpace(kind graphics.SpaceKind, ncomp int) *graphics.ColorSpace {
	return &graphics.ColorSpace{Kind: kind, NComp: ncomp}
}

func (ctx *Context) setDeviceColor(kind graphics.SpaceKind, comp []float64) {
	for i := range comp {
		comp[i] = math.Max(0, math.Min(1, comp[i]))
	}
	ctx.GS.Color = graphics.Color{
		Space: deviceSpace(kind, len(comp)),
		Comp:  comp,
	}
}

func opSetGray(ctx *Context) *PSError {
	g, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.setDeviceColor(graphics.DeviceGray, []float64{g})
	return nil
}

// currentRGB resolves the current color through the color engine.
func (ctx *Context) currentRGB() (graphics.RGB, *PSError) {
	rgb, err := ctx.GS.Color.ToRGB(ctx.evalProc)
	if err != nil {
		return graphics.RGB{}, wrapErr(err, object.Object{})
	}
	return rgb, nil
}

func opCurrentGray(ctx *Context) *PSError {
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	return ctx.pushAll(object.MakeReal(graphics.RGBToGray(rgb)))
}

func opSetRGBColor(ctx *Context) *PSError {
	b, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	g, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	r, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	ctx.Op.PopN(3)
	ctx.setDeviceColor(graphics.DeviceRGB, []float64{r, g, b})
	return nil
}

func opCurrentRGBColor(ctx *Context) *PSError {
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	return ctx.pushAll(
		object.MakeReal(rgb[0]),
		object.MakeReal(rgb[1]),
		object.MakeReal(rgb[2]),
	)
}

func opSetHSBColor(ctx *Context) *PSError {
	br, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	s, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	h, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	ctx.Op.PopN(3)
	r, g, b := hsbToRGB(h, s, br)
	ctx.setDeviceColor(graphics.DeviceRGB, []float64{r, g, b})
	return nil
}

func opCurrentHSBColor(ctx *Context) *PSError {
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	h, s, b := rgbToHSB(rgb[0], rgb[1], rgb[2])
	return ctx.pushAll(object.MakeReal(h), object.MakeReal(s), object.MakeReal(b))
}

func opSetCMYKColor(ctx *Context) *PSError {
	k, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	y, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	m, err := ctx.peekNum(2)
	if err != nil {
		return err
	}
	c, err := ctx.peekNum(3)
	if err != nil {
		return err
	}
	ctx.Op.PopN(4)
	ctx.setDeviceColor(graphics.DeviceCMYK, []float64{c, m, y, k})
	return nil
}

func opCurrentCMYKColor(ctx *Context) *PSError {
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	c, m, y, k := graphics.RGBToCMYK(rgb)
	return ctx.pushAll(
		object.MakeReal(c), object.MakeReal(m),
		object.MakeReal(y), object.MakeReal(k),
	)
}

func opSetColorSpace(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	cs, e := ctx.parseColorSpace(o)
	if e != nil {
		return e
	}
	ctx.Op.Pop()
	ctx.GS.Color = graphics.Color{Space: cs, Comp: cs.InitialComponents()}
	return nil
}

func opCurrentColorSpace(ctx *Context) *PSError {
	cs := ctx.GS.Color.Space
	if cs.Obj.Type != object.Null {
		return ctx.pushAll(cs.Obj)
	}
	name := object.MakeName(cs.Kind.Name(), object.Literal)
	return ctx.pushAll(ctx.VM.NewArrayFrom([]object.Object{name}))
}

func opSetColor(ctx *Context) *PSError {
	cs := ctx.GS.Color.Space
	if cs.Kind == graphics.Pattern {
		pat, err := ctx.peekType(0, object.Dict)
		if err != nil {
			return err
		}
		n := 0
		if cs.Under != nil {
			// Uncolored pattern: underlying components precede the
			// pattern dictionary.
			if paint, ok := ctx.VM.DictGetName(pat, "PaintType"); ok && paint.IntVal == 2 {
				n = cs.Under.NComp
			}
		}
		comp := make([]float64, n)
		for i := 0; i < n; i++ {
			v, e := ctx.peekNum(1 + (n - 1 - i))
			if e != nil {
				return e
			}
			comp[i] = v
		}
		ctx.Op.PopN(1 + n)
		ctx.GS.Color = graphics.Color{Space: cs, Comp: comp, Pattern: pat, HasPat: true}
		return nil
	}
	n := cs.NComp
	comp := make([]float64, n)
	for i := 0; i < n; i++ {
		v, e := ctx.peekNum(n - 1 - i)
		if e != nil {
			return e
		}
		comp[i] = v
	}
	ctx.Op.PopN(n)
	ctx.GS.Color = graphics.Color{Space: cs, Comp: comp}
	return nil
}

func opCurrentColor(ctx *Context) *PSError {
	c := ctx.GS.Color
	for _, v := range c.Comp {
		if err := ctx.Op.Push(object.MakeReal(v)); err != nil {
			return wrapErr(err, object.Object{})
		}
	}
	if c.HasPat {
		return ctx.pushAll(c.Pattern)
	}
	return nil
}

// parseColorSpace decodes a setcolorspace operand: a family name or an
// array [family params...].
func (ctx *Context) parseColorSpace(o object.Object) (*graphics.ColorSpace, *PSError) {
	if o.Type == object.Name {
		cs, e := ctx.deviceSpaceByName(o.NameVal)
		if e != nil {
			return nil, e
		}
		cs.Obj = o
		return cs, nil
	}
	if o.Type != object.Array && o.Type != object.PackedArray {
		return nil, fail(object.ErrTypeCheck)
	}
	if o.Access < object.ReadOnly || o.Length == 0 {
		return nil, fail(object.ErrInvalidAccess)
	}
	elems := ctx.VM.ArraySlice(o)
	family := elems[0]
	if family.Type != object.Name {
		return nil, fail(object.ErrTypeCheck)
	}
	var cs *graphics.ColorSpace
	var e *PSError
	switch family.NameVal {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
		cs, e = ctx.deviceSpaceByName(family.NameVal)
	case "CIEBasedA":
		cs, e = ctx.parseCIE(elems, graphics.CIEBasedA, 1)
	case "CIEBasedABC":
		cs, e = ctx.parseCIE(elems, graphics.CIEBasedABC, 3)
	case "CIEBasedDEF":
		cs, e = ctx.parseCIE(elems, graphics.CIEBasedDEF, 3)
	case "CIEBasedDEFG":
		cs, e = ctx.parseCIE(elems, graphics.CIEBasedDEFG, 4)
	case "ICCBased":
		cs, e = ctx.parseICC(elems)
	case "Indexed":
		cs, e = ctx.parseIndexed(elems)
	case "Separation":
		cs, e = ctx.parseSeparation(elems)
	case "DeviceN":
		cs, e = ctx.parseDeviceN(elems)
	case "Pattern":
		cs, e = ctx.parsePattern(elems)
	default:
		return nil, fail(object.ErrUndefined)
	}
	if e != nil {
		return nil, e
	}
	cs.Obj = o
	return cs, nil
}

func (ctx *Context) deviceSpaceByName(name string) (*graphics.ColorSpace, *PSError) {
	switch name {
	case "DeviceGray":
		return deviceSpace(graphics.DeviceGray, 1), nil
	case "DeviceRGB":
		return deviceSpace(graphics.DeviceRGB, 3), nil
	case "DeviceCMYK":
		return deviceSpace(graphics.DeviceCMYK, 4), nil
	case "Pattern":
		return &graphics.ColorSpace{Kind: graphics.Pattern, NComp: 0}, nil
	}
	return nil, fail(object.ErrUndefined)
}

func (ctx *Context) dictFloats(d object.Object, key string, n int) []float64 {
	v, ok := ctx.VM.DictGetName(d, key)
	if !ok || (v.Type != object.Array && v.Type != object.PackedArray) {
		return nil
	}
	out := make([]float64, 0, n)
	for _, e := range ctx.VM.ArraySlice(v) {
		if e.IsNumber() {
			out = append(out, e.Number())
		}
	}
	return out
}

func (ctx *Context) dictProcs(d object.Object, key string) []object.Object {
	v, ok := ctx.VM.DictGetName(d, key)
	if !ok || (v.Type != object.Array && v.Type != object.PackedArray) {
		return nil
	}
	return append([]object.Object(nil), ctx.VM.ArraySlice(v)...)
}

func (ctx *Context) parseCIE(elems []object.Object, kind graphics.SpaceKind, ncomp int) (*graphics.ColorSpace, *PSError) {
	if len(elems) < 2 || elems[1].Type != object.Dict {
		return nil, fail(object.ErrTypeCheck)
	}
	d := elems[1]
	cs := &graphics.ColorSpace{Kind: kind, NComp: ncomp}
	if wp := ctx.dictFloats(d, "WhitePoint", 3); len(wp) == 3 {
		copy(cs.WhitePoint[:], wp)
	}
	switch kind {
	case graphics.CIEBasedA:
		cs.RangeIn = ctx.dictFloats(d, "RangeA", 2)
		if p, ok := ctx.VM.DictGetName(d, "DecodeA"); ok {
			cs.DecodeIn = []object.Object{p}
		}
		cs.MatrixIn = ctx.dictFloats(d, "MatrixA", 3)
	case graphics.CIEBasedABC:
		cs.RangeIn = ctx.dictFloats(d, "RangeABC", 6)
		cs.DecodeIn = ctx.dictProcs(d, "DecodeABC")
		cs.MatrixIn = ctx.dictFloats(d, "MatrixABC", 9)
	case graphics.CIEBasedDEF:
		cs.RangeIn = ctx.dictFloats(d, "RangeDEF", 6)
		cs.DecodeIn = ctx.dictProcs(d, "DecodeDEF")
		cs.RangeABC = ctx.dictFloats(d, "RangeABC", 6)
		cs.MatrixIn = ctx.dictFloats(d, "MatrixABC", 9)
		cs.Table = ctx.parseTable3(d)
	case graphics.CIEBasedDEFG:
		cs.RangeIn = ctx.dictFloats(d, "RangeDEFG", 8)
		cs.DecodeIn = ctx.dictProcs(d, "DecodeDEFG")
		cs.RangeABC = ctx.dictFloats(d, "RangeABC", 6)
		cs.MatrixIn = ctx.dictFloats(d, "MatrixABC", 9)
		cs.Table4 = ctx.parseTable4(d)
	}
	cs.DecodeLMN = ctx.dictProcs(d, "DecodeLMN")
	cs.MatrixLMN = ctx.dictFloats(d, "MatrixLMN", 9)
	return cs, nil
}

// parseTable3 flattens the [Nh Ni Nj [strings]] lookup table.
func (ctx *Context) parseTable3(d object.Object) *graphics.Table3 {
	v, ok := ctx.VM.DictGetName(d, "Table")
	if !ok || (v.Type != object.Array && v.Type != object.PackedArray) || v.Length < 4 {
		return nil
	}
	e := ctx.VM.ArraySlice(v)
	t := &graphics.Table3{Nh: int(e[0].Number()), Ni: int(e[1].Number()), Nj: int(e[2].Number())}
	strs := e[3]
	if strs.Type != object.Array && strs.Type != object.PackedArray {
		return nil
	}
	for _, s := range ctx.VM.ArraySlice(strs) {
		if s.Type == object.String {
			t.Data = append(t.Data, ctx.VM.StringBytes(s)...)
		}
	}
	return t
}

func (ctx *Context) parseTable4(d object.Object) *graphics.Table4 {
	v, ok := ctx.VM.DictGetName(d, "Table")
	if !ok || (v.Type != object.Array && v.Type != object.PackedArray) || v.Length < 5 {
		return nil
	}
	e := ctx.VM.ArraySlice(v)
	t := &graphics.Table4{
		Nh: int(e[0].Number()), Ni: int(e[1].Number()),
		Nj: int(e[2].Number()), Nk: int(e[3].Number()),
	}
	strs := e[4]
	if strs.Type != object.Array && strs.Type != object.PackedArray {
		return nil
	}
	for _, s := range ctx.VM.ArraySlice(strs) {
		if s.Type == object.String {
			t.Data = append(t.Data, ctx.VM.StringBytes(s)...)
		}
	}
	return t
}

func (ctx *Context) parseICC(elems []object.Object) (*graphics.ColorSpace, *PSError) {
	if len(elems) < 2 || elems[1].Type != object.Dict {
		return nil, fail(object.ErrTypeCheck)
	}
	d := elems[1]
	cs := &graphics.ColorSpace{Kind: graphics.ICCBased, NComp: 3}
	if n, ok := ctx.VM.DictGetName(d, "N"); ok && n.Type == object.Int {
		cs.NComp = int(n.IntVal)
	}
	if alt, ok := ctx.VM.DictGetName(d, "Alternate"); ok {
		sub, e := ctx.parseColorSpace(alt)
		if e != nil {
			return nil, e
		}
		cs.Alt = sub
	}
	return cs, nil
}

func (ctx *Context) parseIndexed(elems []object.Object) (*graphics.ColorSpace, *PSError) {
	if len(elems) < 4 {
		return nil, fail(object.ErrRangeCheck)
	}
	base, e := ctx.parseColorSpace(elems[1])
	if e != nil {
		return nil, e
	}
	if elems[2].Type != object.Int {
		return nil, fail(object.ErrTypeCheck)
	}
	cs := &graphics.ColorSpace{
		Kind:  graphics.Indexed,
		NComp: 1,
		HiVal: int(elems[2].IntVal),
		Base:  base,
	}
	lookup := elems[3]
	switch {
	case lookup.Type == object.String:
		cs.PaletteBytes = append([]byte(nil), ctx.VM.StringBytes(lookup)...)
	case isProc(lookup):
		cs.PaletteProc = lookup
	default:
		return nil, fail(object.ErrTypeCheck)
	}
	return cs, nil
}

func (ctx *Context) parseSeparation(elems []object.Object) (*graphics.ColorSpace, *PSError) {
	if len(elems) < 4 {
		return nil, fail(object.ErrRangeCheck)
	}
	alt, e := ctx.parseColorSpace(elems[2])
	if e != nil {
		return nil, e
	}
	if !isProc(elems[3]) {
		return nil, fail(object.ErrTypeCheck)
	}
	return &graphics.ColorSpace{
		Kind:  graphics.Separation,
		NComp: 1,
		Alt:   alt,
		Tint:  elems[3],
	}, nil
}

func (ctx *Context) parseDeviceN(elems []object.Object) (*graphics.ColorSpace, *PSError) {
	if len(elems) < 4 {
		return nil, fail(object.ErrRangeCheck)
	}
	names := elems[1]
	if names.Type != object.Array && names.Type != object.PackedArray {
		return nil, fail(object.ErrTypeCheck)
	}
	alt, e := ctx.parseColorSpace(elems[2])
	if e != nil {
		return nil, e
	}
	if !isProc(elems[3]) {
		return nil, fail(object.ErrTypeCheck)
	}
	return &graphics.ColorSpace{
		Kind:  graphics.DeviceN,
		NComp: names.Length,
		Alt:   alt,
		Tint:  elems[3],
	}, nil
}

func (ctx *Context) parsePattern(elems []object.Object) (*graphics.ColorSpace, *PSError) {
	cs := &graphics.ColorSpace{Kind: graphics.Pattern}
	if len(elems) >= 2 {
		under, e := ctx.parseColorSpace(elems[1])
		if e != nil {
			return nil, e
		}
		cs.Under = under
	}
	return cs, nil
}

func opSetTransfer(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.Transfer = proc
	return nil
}

func opCurrentTransfer(ctx *Context) *PSError {
	if ctx.GS.Transfer.Type == object.Null {
		return ctx.pushAll(ctx.VM.NewProc(nil))
	}
	return ctx.pushAll(ctx.GS.Transfer)
}

// setcolortransfer checks that all four operands are procedures and
// stores only the topmost (gray) one as the transfer function.
func opSetColorTransfer(ctx *Context) *PSError {
	if err := ctx.need(4); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		p, _ := ctx.Op.Peek(i)
		if !isProc(p) {
			return fail(object.ErrTypeCheck)
		}
	}
	gray, _ := ctx.Op.Peek(0)
	ctx.Op.PopN(4)
	ctx.GS.Transfer = gray
	return nil
}

func opSetBlackGeneration(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.BlackGen = proc
	return nil
}

func opCurrentBlackGeneration(ctx *Context) *PSError {
	if ctx.GS.BlackGen.Type == object.Null {
		return ctx.pushAll(ctx.VM.NewProc(nil))
	}
	return ctx.pushAll(ctx.GS.BlackGen)
}

func opSetUndercolorRemoval(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.UnderColor = proc
	return nil
}

func opCurrentUndercolorRemoval(ctx *Context) *PSError {
	if ctx.GS.UnderColor.Type == object.Null {
		return ctx.pushAll(ctx.VM.NewProc(nil))
	}
	return ctx.pushAll(ctx.GS.UnderColor)
}

// sethalftone stores the dictionary; Types 1 through 7 are accepted,
// and only Type 1 parameters feed the screen readbacks.
func opSetHalftone(ctx *Context) *PSError {
	d, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	if t, ok := ctx.VM.DictGetName(d, "HalftoneType"); ok {
		if t.Type != object.Int || t.IntVal < 1 || t.IntVal > 7 {
			return fail(object.ErrRangeCheck)
		}
	}
	ctx.Op.Pop()
	ctx.GS.Halftone = d
	return nil
}

func opCurrentHalftone(ctx *Context) *PSError {
	if ctx.GS.Halftone.Type == object.Null {
		d := ctx.VM.NewDict(4)
		ctx.VM.DictPutName(d, "HalftoneType", object.MakeInt(1))
		ctx.VM.DictPutName(d, "Frequency", object.MakeInt(60))
		ctx.VM.DictPutName(d, "Angle", object.MakeInt(45))
		ctx.VM.DictPutName(d, "SpotFunction", ctx.VM.NewProc(nil))
		ctx.GS.Halftone = d
	}
	return ctx.pushAll(ctx.GS.Halftone)
}

func opSetScreen(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	angle, e := ctx.peekNum(1)
	if e != nil {
		return e
	}
	freq, e := ctx.peekNum(2)
	if e != nil {
		return e
	}
	if freq <= 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.PopN(3)
	d := ctx.VM.NewDict(4)
	ctx.VM.DictPutName(d, "HalftoneType", object.MakeInt(1))
	ctx.VM.DictPutName(d, "Frequency", object.MakeReal(freq))
	ctx.VM.DictPutName(d, "Angle", object.MakeReal(angle))
	ctx.VM.DictPutName(d, "SpotFunction", proc)
	ctx.GS.Halftone = d
	return nil
}

func opCurrentScreen(ctx *Context) *PSError {
	freq, angle := 60.0, 45.0
	spot := ctx.VM.NewProc(nil)
	if ctx.GS.Halftone.Type == object.Dict {
		if v, ok := ctx.VM.DictGetName(ctx.GS.Halftone, "Frequency"); ok && v.IsNumber() {
			freq = v.Number()
		}
		if v, ok := ctx.VM.DictGetName(ctx.GS.Halftone, "Angle"); ok && v.IsNumber() {
			angle = v.Number()
		}
		if v, ok := ctx.VM.DictGetName(ctx.GS.Halftone, "SpotFunction"); ok {
			spot = v
		}
	}
	return ctx.pushAll(object.MakeReal(freq), object.MakeReal(angle), spot)
}

func hsbToRGB(h, s, v float64) (float64, float64, float64) {
	h = h - math.Floor(h)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func rgbToHSB(r, g, b float64) (float64, float64, float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v := max
	d := max - min
	var s float64
	if max > 0 {
		s = d / max
	}
	var h float64
	if d > 0 {
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}
	return h, s, v
}
