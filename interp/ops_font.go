package interp

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerFontOps(def defFunc) {
	def("findfont", opFindFont)
	def("scalefont", opScaleFont)
	def("makefont", opMakeFont)
	def("setfont", opSetFont)
	def("currentfont", opCurrentFont)
	def("rootfont", opCurrentFont)
	def("selectfont", opSelectFont)
	def("definefont", opDefineFont)
	def("undefinefont", opUndefineFont)
	def("show", opShow)
	def("ashow", opAshow)
	def("widthshow", opWidthShow)
	def("awidthshow", opAwidthShow)
	def("xshow", opXShow)
	def("yshow", opYShow)
	def("xyshow", opXYShow)
	def("kshow", opKshow)
	def("cshow", opCshow)
	def("glyphshow", opGlyphShow)
	def("stringwidth", opStringWidth)
	def("charpath", opCharPath)
}

// The advance ratio of the built-in fixed-pitch fallback font. Glyph
// outlines are the renderer's concern; the interpreter carries metrics
// and identity only.
const builtinAdvance = 0.6

// newFontDict builds the stub font dictionary returned by findfont when
// no resource-defined font matches.
func (ctx *Context) newFontDict(name string) object.Object {
	d := ctx.VM.NewDict(8)
	ctx.VM.DictPutName(d, "FontName", object.MakeName(name, object.Literal))
	ctx.VM.DictPutName(d, "FontType", object.MakeInt(1))
	mtx := ctx.matrixFrom(graphics.Matrix{0.001, 0, 0, 0.001, 0, 0})
	ctx.VM.DictPutName(d, "FontMatrix", mtx)
	bbox := ctx.VM.NewArrayFrom([]object.Object{
		object.MakeInt(0), object.MakeInt(-200),
		object.MakeInt(600), object.MakeInt(800),
	})
	ctx.VM.DictPutName(d, "FontBBox", bbox)
	ctx.VM.DictPutName(d, "Encoding", object.MakeName("StandardEncoding", object.Literal))
	ctx.fontCounter++
	ctx.VM.DictPutName(d, "FID", object.Object{
		Type: object.FontID, Access: object.Unlimited, Slot: ctx.fontCounter,
	})
	return d
}

func (ctx *Context) fontCategory() object.Object {
	return ctx.resourceCategory("Font")
}

func opFindFont(ctx *Context) *PSError {
	key, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if key.Type != object.Name && key.Type != object.String {
		return fail(object.ErrTypeCheck)
	}
	cat := ctx.fontCategory()
	if f, ok := ctx.VM.DictGet(cat, key); ok {
		ctx.Op.Pop()
		return ctx.pushAll(f)
	}
	name := key.NameVal
	if key.Type == object.String {
		name = string(ctx.VM.StringBytes(key))
	}
	ctx.Op.Pop()
	return ctx.pushAll(ctx.newFontDict(name))
}

// scaleFontBy copies the font dict with its FontMatrix concatenated.
func (ctx *Context) scaleFontBy(font object.Object, m graphics.Matrix) (object.Object, *PSError) {
	if font.Type != object.Dict {
		return object.Object{}, fail(object.ErrTypeCheck)
	}
	out := ctx.VM.NewDict(ctx.VM.DictLength(font) + 1)
	if err := ctx.VM.DictCopyInto(font, out); err != nil {
		return object.Object{}, wrapErr(err, font)
	}
	base := graphics.Matrix{0.001, 0, 0, 0.001, 0, 0}
	if mo, ok := ctx.VM.DictGetName(font, "FontMatrix"); ok {
		if mm, err := ctx.readMatrix(mo); err == nil {
			base = mm
		}
	}
	ctx.VM.DictPutName(out, "FontMatrix", ctx.matrixFrom(base.Mul(m)))
	return out, nil
}

func opScaleFont(ctx *Context) *PSError {
	size, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	font, e := ctx.peekType(1, object.Dict)
	if e != nil {
		return e
	}
	out, serr := ctx.scaleFontBy(font, graphics.Scaling(size, size))
	if serr != nil {
		return serr
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(out)
}

func opMakeFont(ctx *Context) *PSError {
	mtx, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, merr := ctx.readMatrix(mtx)
	if merr != nil {
		return merr
	}
	font, e := ctx.peekType(1, object.Dict)
	if e != nil {
		return e
	}
	out, serr := ctx.scaleFontBy(font, m)
	if serr != nil {
		return serr
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(out)
}

func opSetFont(ctx *Context) *PSError {
	font, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.GS.Font = font
	return nil
}

func opCurrentFont(ctx *Context) *PSError {
	if ctx.GS.Font.Type != object.Dict {
		ctx.GS.Font = ctx.newFontDict("Courier")
	}
	return ctx.pushAll(ctx.GS.Font)
}

func opSelectFont(ctx *Context) *PSError {
	size, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	key, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if key.Type != object.Name && key.Type != object.String {
		return fail(object.ErrTypeCheck)
	}
	var font object.Object
	if f, ok := ctx.VM.DictGet(ctx.fontCategory(), key); ok {
		font = f
	} else {
		name := key.NameVal
		if key.Type == object.String {
			name = string(ctx.VM.StringBytes(key))
		}
		font = ctx.newFontDict(name)
	}
	scaled, serr := ctx.scaleFontBy(font, graphics.Scaling(size, size))
	if serr != nil {
		return serr
	}
	ctx.Op.PopN(2)
	ctx.GS.Font = scaled
	return nil
}

func opDefineFont(ctx *Context) *PSError {
	font, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	key, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.fontCounter++
	ctx.VM.DictPutName(font, "FID", object.Object{
		Type: object.FontID, Access: object.Unlimited, Slot: ctx.fontCounter,
	})
	if perr := ctx.VM.DictPut(ctx.fontCategory(), key, font); perr != nil {
		return wrapErr(perr, key)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(font)
}

func opUndefineFont(ctx *Context) *PSError {
	key, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if e := ctx.VM.DictUndef(ctx.fontCategory(), key); e != nil {
		return wrapErr(e, key)
	}
	ctx.Op.Pop()
	return nil
}

// fontNameAndSize extracts identity and effective size from the current
// font dict.
func (ctx *Context) fontNameAndSize() (string, float64) {
	name := "Courier"
	size := 1.0
	if ctx.GS.Font.Type == object.Dict {
		if n, ok := ctx.VM.DictGetName(ctx.GS.Font, "FontName"); ok && n.Type == object.Name {
			name = n.NameVal
		}
		if mo, ok := ctx.VM.DictGetName(ctx.GS.Font, "FontMatrix"); ok {
			if m, err := ctx.readMatrix(mo); err == nil {
				size = m[0] * 1000
			}
		}
	}
	return name, size
}

// charWidth is the natural advance of a character in user space.
func (ctx *Context) charWidth(r rune) (float64, float64) {
	_, size := ctx.fontNameAndSize()
	return builtinAdvance * size, 0
}

// advanceCurrentPoint moves the current point by a user-space delta.
func (ctx *Context) advanceCurrentPoint(dx, dy float64) {
	ddx, ddy := ctx.GS.CTM.ApplyDelta(dx, dy)
	ctx.GS.CurX += ddx
	ctx.GS.CurY += ddy
}

func (ctx *Context) textObjsMode() bool {
	if v, ok := ctx.VM.DictGetName(ctx.GS.PageDevice, "TextRenderingMode"); ok && v.Type == object.Name {
		return v.NameVal == "TextObjs"
	}
	return true
}

// paintChar paints one glyph at the current point and advances.
func (ctx *Context) paintChar(r rune) *PSError {
	return ctx.paintText(string(r), nil)
}

// paintText emits the display-list form of a string: one TextObj in
// TextObjs mode, or per-glyph references in GlyphPaths mode. extra
// yields an additional per-character displacement.
func (ctx *Context) paintText(s string, extra func(i int, c byte) (float64, float64)) *PSError {
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.DL.SyncClip(ctx.GS)
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	name, size := ctx.fontNameAndSize()
	if ctx.textObjsMode() {
		ctx.DL.Append(graphics.TextObj{
			FontName: name,
			Size:     size,
			X:        ctx.GS.CurX,
			Y:        ctx.GS.CurY,
			Text:     s,
			Color:    rgb,
			CTM:      ctx.GS.CTM,
		})
		for i := 0; i < len(s); i++ {
			wx, wy := ctx.charWidth(rune(s[i]))
			if extra != nil {
				ex, ey := extra(i, s[i])
				wx += ex
				wy += ey
			}
			ctx.advanceCurrentPoint(wx, wy)
		}
		return nil
	}
	for i := 0; i < len(s); i++ {
		ctx.DL.Append(graphics.GlyphRef{
			FontName: name,
			Code:     rune(s[i]),
			X:        ctx.GS.CurX,
			Y:        ctx.GS.CurY,
			Size:     size,
			Color:    rgb,
		})
		wx, wy := ctx.charWidth(rune(s[i]))
		if extra != nil {
			ex, ey := extra(i, s[i])
			wx += ex
			wy += ey
		}
		ctx.advanceCurrentPoint(wx, wy)
	}
	return nil
}

func (ctx *Context) peekShowString(i int) (object.Object, []byte, *PSError) {
	s, err := ctx.peekType(i, object.String)
	if err != nil {
		return object.Object{}, nil, err
	}
	if s.Access < object.ReadOnly {
		return object.Object{}, nil, fail(object.ErrInvalidAccess)
	}
	return s, ctx.VM.StringBytes(s), nil
}

func opShow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	if e := ctx.paintText(string(b), nil); e != nil {
		return e
	}
	ctx.Op.Pop()
	return nil
}

func opAshow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	ay, e := ctx.peekNum(1)
	if e != nil {
		return e
	}
	ax, e := ctx.peekNum(2)
	if e != nil {
		return e
	}
	if perr := ctx.paintText(string(b), func(int, byte) (float64, float64) { return ax, ay }); perr != nil {
		return perr
	}
	ctx.Op.PopN(3)
	return nil
}

func opWidthShow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	chr, e := ctx.peekInt(1)
	if e != nil {
		return e
	}
	cy, e2 := ctx.peekNum(2)
	if e2 != nil {
		return e2
	}
	cx, e2 := ctx.peekNum(3)
	if e2 != nil {
		return e2
	}
	if perr := ctx.paintText(string(b), func(_ int, c byte) (float64, float64) {
		if int64(c) == chr {
			return cx, cy
		}
		return 0, 0
	}); perr != nil {
		return perr
	}
	ctx.Op.PopN(4)
	return nil
}

func opAwidthShow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	ay, e := ctx.peekNum(1)
	if e != nil {
		return e
	}
	ax, e := ctx.peekNum(2)
	if e != nil {
		return e
	}
	chr, e2 := ctx.peekInt(3)
	if e2 != nil {
		return e2
	}
	cy, e3 := ctx.peekNum(4)
	if e3 != nil {
		return e3
	}
	cx, e3 := ctx.peekNum(5)
	if e3 != nil {
		return e3
	}
	if perr := ctx.paintText(string(b), func(_ int, c byte) (float64, float64) {
		dx, dy := ax, ay
		if int64(c) == chr {
			dx += cx
			dy += cy
		}
		return dx, dy
	}); perr != nil {
		return perr
	}
	ctx.Op.PopN(6)
	return nil
}

// explicitShow backs xshow/yshow/xyshow: displacements come from the
// number array instead of font metrics.
func (ctx *Context) explicitShow(xs, ys bool) *PSError {
	disp, err := ctx.peekType(0, object.Array, object.PackedArray, object.String)
	if err != nil {
		return err
	}
	_, b, serr := ctx.peekShowString(1)
	if serr != nil {
		return serr
	}
	var nums []float64
	if disp.Type == object.String {
		for _, v := range ctx.VM.StringBytes(disp) {
			nums = append(nums, float64(v))
		}
	} else {
		for _, v := range ctx.VM.ArraySlice(disp) {
			if !v.IsNumber() {
				return fail(object.ErrTypeCheck)
			}
			nums = append(nums, v.Number())
		}
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	name, size := ctx.fontNameAndSize()
	rgb, cerr := ctx.currentRGB()
	if cerr != nil {
		return cerr
	}
	ctx.DL.SyncClip(ctx.GS)
	k := 0
	for i := 0; i < len(b); i++ {
		ctx.DL.Append(graphics.GlyphRef{
			FontName: name, Code: rune(b[i]),
			X: ctx.GS.CurX, Y: ctx.GS.CurY,
			Size: size, Color: rgb,
		})
		var dx, dy float64
		if xs && ys {
			if k+1 >= len(nums) {
				return fail(object.ErrRangeCheck)
			}
			dx, dy = nums[k], nums[k+1]
			k += 2
		} else if xs {
			if k >= len(nums) {
				return fail(object.ErrRangeCheck)
			}
			dx = nums[k]
			k++
		} else {
			if k >= len(nums) {
				return fail(object.ErrRangeCheck)
			}
			dy = nums[k]
			k++
		}
		ctx.advanceCurrentPoint(dx, dy)
	}
	ctx.Op.PopN(2)
	return nil
}

func opXShow(ctx *Context) *PSError  { return ctx.explicitShow(true, false) }
func opYShow(ctx *Context) *PSError  { return ctx.explicitShow(false, true) }
func opXYShow(ctx *Context) *PSError { return ctx.explicitShow(true, true) }

func opKshow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	proc, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	ctx.Op.PopN(2)
	return ctx.pushExecutable(loopMarker(&loopState{
		kind: loopKshow,
		proc: proc,
		str:  append([]byte(nil), b...),
	}))
}

func opCshow(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	proc, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.PopN(2)
	return ctx.pushExecutable(loopMarker(&loopState{
		kind: loopCshow,
		proc: proc,
		str:  append([]byte(nil), b...),
	}))
}

func opGlyphShow(ctx *Context) *PSError {
	key, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if key.Type != object.Name {
		return fail(object.ErrTypeCheck)
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	name, size := ctx.fontNameAndSize()
	rgb, cerr := ctx.currentRGB()
	if cerr != nil {
		return cerr
	}
	ctx.DL.SyncClip(ctx.GS)
	ctx.DL.Append(graphics.GlyphStart{FontName: name, X: ctx.GS.CurX, Y: ctx.GS.CurY})
	ctx.DL.Append(graphics.GlyphRef{
		FontName: name, X: ctx.GS.CurX, Y: ctx.GS.CurY, Size: size, Color: rgb,
	})
	ctx.DL.Append(graphics.GlyphEnd{})
	wx, wy := ctx.charWidth(' ')
	ctx.advanceCurrentPoint(wx, wy)
	ctx.Op.Pop()
	return nil
}

func opStringWidth(ctx *Context) *PSError {
	_, b, err := ctx.peekShowString(0)
	if err != nil {
		return err
	}
	var wx, wy float64
	for _, c := range b {
		dx, dy := ctx.charWidth(rune(c))
		wx += dx
		wy += dy
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(wx), object.MakeReal(wy))
}

// opCharPath appends glyph bounding boxes; outline extraction is the
// renderer's concern, so the path is the metrics box per glyph.
func opCharPath(ctx *Context) *PSError {
	_, err := ctx.peekType(0, object.Bool)
	if err != nil {
		return err
	}
	_, b, serr := ctx.peekShowString(1)
	if serr != nil {
		return serr
	}
	if !ctx.GS.HasCurrent {
		return fail(object.ErrNoCurrentPoint)
	}
	_, size := ctx.fontNameAndSize()
	x, y := ctx.GS.UserPoint()
	for _, c := range b {
		wx, _ := ctx.charWidth(rune(c))
		ctx.GS.MoveTo(x, y-0.2*size)
		ctx.GS.LineTo(x+wx, y-0.2*size)
		ctx.GS.LineTo(x+wx, y+0.8*size)
		ctx.GS.LineTo(x, y+0.8*size)
		ctx.GS.ClosePath()
		x += wx
	}
	ctx.GS.MoveTo(x, y)
	ctx.Op.PopN(2)
	return nil
}
