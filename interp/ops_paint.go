package interp

import (
	"io"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerPaintOps(def defFunc) {
	def("erasepage", opErasePage)
	def("fill", opFill)
	def("eofill", opEoFill)
	def("stroke", opStroke)
	def("rectfill", opRectFill)
	def("rectstroke", opRectStroke)
	def("image", opImage)
	def("imagemask", opImageMask)
	def("colorimage", opColorImage)
}

func opErasePage(ctx *Context) *PSError {
	ctx.DL.Append(graphics.ErasePage{})
	return nil
}

// paintFill consumes the current path into a fill element, resolving
// the color lazily at this point.
func (ctx *Context) paintFill(rule graphics.FillRule) *PSError {
	if len(ctx.GS.Path) == 0 {
		ctx.GS.ClearPath()
		return nil
	}
	ctx.DL.SyncClip(ctx.GS)
	ctx.DL.AppendPath(ctx.GS.Path)
	c := ctx.GS.Color
	if c.Space.Kind == graphics.Pattern && c.HasPat {
		if e := ctx.appendPatternFill(rule); e != nil {
			return e
		}
		ctx.GS.ClearPath()
		return nil
	}
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	ctx.DL.Append(graphics.Fill{Color: rgb, Rule: rule})
	ctx.GS.ClearPath()
	return nil
}

// appendPatternFill emits a PatternFill, or the shading element matching
// the pattern's ShadingType for PatternType 2.
func (ctx *Context) appendPatternFill(rule graphics.FillRule) *PSError {
	pat := ctx.GS.Color.Pattern
	if pt, ok := ctx.VM.DictGetName(pat, "PatternType"); ok && pt.Type == object.Int && pt.IntVal == 2 {
		if sh, ok := ctx.VM.DictGetName(pat, "Shading"); ok && sh.Type == object.Dict {
			st, _ := ctx.VM.DictGetName(sh, "ShadingType")
			switch st.IntVal {
			case 1:
				ctx.DL.Append(graphics.FunctionShadingFill{Dict: sh, CTM: ctx.GS.CTM})
			case 2:
				ctx.DL.Append(graphics.AxialShadingFill{Dict: sh, CTM: ctx.GS.CTM})
			case 3:
				ctx.DL.Append(graphics.RadialShadingFill{Dict: sh, CTM: ctx.GS.CTM})
			case 4, 5:
				ctx.DL.Append(graphics.MeshShadingFill{Dict: sh, CTM: ctx.GS.CTM})
			case 6, 7:
				ctx.DL.Append(graphics.PatchShadingFill{Dict: sh, CTM: ctx.GS.CTM})
			default:
				return fail(object.ErrRangeCheck)
			}
			return nil
		}
	}
	var under graphics.RGB
	if ctx.GS.Color.Space.Under != nil {
		rgb, err := graphics.Color{
			Space: ctx.GS.Color.Space.Under,
			Comp:  ctx.GS.Color.Comp,
		}.ToRGB(ctx.evalProc)
		if err != nil {
			return wrapErr(err, pat)
		}
		under = rgb
	}
	ctx.DL.Append(graphics.PatternFill{Pattern: pat, Under: under, Rule: rule})
	return nil
}

func opFill(ctx *Context) *PSError {
	return ctx.paintFill(graphics.NonZero)
}

func opEoFill(ctx *Context) *PSError {
	return ctx.paintFill(graphics.EvenOdd)
}

func opStroke(ctx *Context) *PSError {
	if len(ctx.GS.Path) == 0 {
		ctx.GS.ClearPath()
		return nil
	}
	ctx.DL.SyncClip(ctx.GS)
	ctx.DL.AppendPath(ctx.GS.Path)
	rgb, err := ctx.currentRGB()
	if err != nil {
		return err
	}
	// Device-space line width: scale by the CTM's magnitude.
	wx, wy := ctx.GS.CTM.ApplyDelta(ctx.GS.LineWidth, ctx.GS.LineWidth)
	w := (abs(wx) + abs(wy)) / 2
	if min, ok := ctx.VM.DictGetName(ctx.GS.PageDevice, "LineWidthMin"); ok && min.IsNumber() && w < min.Number() {
		w = min.Number()
	}
	ctx.DL.Append(graphics.Stroke{
		Color:      rgb,
		Width:      w,
		Cap:        ctx.GS.LineCap,
		Join:       ctx.GS.LineJoin,
		MiterLimit: ctx.GS.MiterLimit,
		Dash:       append([]float64(nil), ctx.GS.Dash...),
		DashOffset: ctx.GS.DashOffset,
	})
	ctx.GS.ClearPath()
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func rectOperands(ctx *Context) (x, y, w, h float64, err *PSError) {
	if h, err = ctx.peekNum(0); err != nil {
		return
	}
	if w, err = ctx.peekNum(1); err != nil {
		return
	}
	if y, err = ctx.peekNum(2); err != nil {
		return
	}
	x, err = ctx.peekNum(3)
	return
}

func opRectFill(ctx *Context) *PSError {
	x, y, w, h, err := rectOperands(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(4)
	saved := ctx.GS.Path.Clone()
	hadCurrent := ctx.GS.HasCurrent
	ctx.GS.ClearPath()
	ctx.appendRect(x, y, w, h)
	if e := ctx.paintFill(graphics.NonZero); e != nil {
		return e
	}
	ctx.GS.Path = saved
	ctx.GS.HasCurrent = hadCurrent
	return nil
}

func opRectStroke(ctx *Context) *PSError {
	x, y, w, h, err := rectOperands(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(4)
	saved := ctx.GS.Path.Clone()
	hadCurrent := ctx.GS.HasCurrent
	ctx.GS.ClearPath()
	ctx.appendRect(x, y, w, h)
	if e := opStroke(ctx); e != nil {
		return e
	}
	ctx.GS.Path = saved
	ctx.GS.HasCurrent = hadCurrent
	return nil
}

// readImageData pulls sample rows from a data source: a string, a file,
// or a procedure returning strings.
func (ctx *Context) readImageData(src object.Object, need int) ([]byte, *PSError) {
	switch {
	case src.Type == object.String:
		b := ctx.VM.StringBytes(src)
		out := make([]byte, 0, need)
		for len(out) < need && len(b) > 0 {
			take := need - len(out)
			if take > len(b) {
				take = len(b)
			}
			out = append(out, b[:take]...)
		}
		return out, nil
	case src.Type == object.File:
		h, ok := ctx.fileHandle(src)
		if !ok || h.R == nil {
			return nil, fail(object.ErrIOError)
		}
		out := make([]byte, need)
		n, _ := io.ReadFull(h.R, out)
		return out[:n], nil
	case isProc(src):
		out := make([]byte, 0, need)
		for len(out) < need {
			base := ctx.Exec.Depth()
			ctx.Exec.Push(hardReturnMarker())
			ctx.Exec.Push(src)
			ctx.runUntil(base)
			s, err := ctx.Op.Pop()
			if err != nil || s.Type != object.String || s.Length == 0 {
				break
			}
			out = append(out, ctx.VM.StringBytes(s)...)
		}
		if len(out) > need {
			out = out[:need]
		}
		return out, nil
	}
	return nil, fail(object.ErrTypeCheck)
}

// opImage handles both the Level 1 five-operand form and the
// Level 2 dictionary form.
func opImage(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if top.Type == object.Dict {
		return ctx.imageFromDict(top, false)
	}
	return ctx.imageLevel1(false)
}

func (ctx *Context) imageLevel1(mask bool) *PSError {
	src, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	mtx, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, merr := ctx.readMatrix(mtx)
	if merr != nil {
		return merr
	}
	var bits int64 = 1
	var invert bool
	argAt := 2
	if mask {
		inv, e2 := ctx.peekType(2, object.Bool)
		if e2 != nil {
			return e2
		}
		invert = inv.BoolVal
		argAt = 3
	} else {
		b, e2 := ctx.peekInt(2)
		if e2 != nil {
			return e2
		}
		bits = b
		argAt = 3
	}
	hgt, e3 := ctx.peekInt(argAt)
	if e3 != nil {
		return e3
	}
	wid, e3 := ctx.peekInt(argAt + 1)
	if e3 != nil {
		return e3
	}
	if wid <= 0 || hgt <= 0 {
		return fail(object.ErrRangeCheck)
	}
	rowBytes := (int(wid)*int(bits) + 7) / 8
	data, derr := ctx.readImageData(src, rowBytes*int(hgt))
	if derr != nil {
		return derr
	}
	ctx.Op.PopN(argAt + 2)
	ctx.DL.SyncClip(ctx.GS)
	if mask {
		rgb, cerr := ctx.currentRGB()
		if cerr != nil {
			return cerr
		}
		ctx.DL.Append(graphics.ImageMaskElement{
			Width: int(wid), Height: int(hgt),
			Matrix: m, CTM: ctx.GS.CTM,
			Data: data, Invert: invert, Color: rgb,
		})
		return nil
	}
	ctx.DL.Append(graphics.ImageElement{
		Width: int(wid), Height: int(hgt), Bits: int(bits),
		Matrix: m, CTM: ctx.GS.CTM, Data: data, NComp: 1,
	})
	return nil
}

func (ctx *Context) imageFromDict(d object.Object, mask bool) *PSError {
	get := func(key string) (object.Object, bool) { return ctx.VM.DictGetName(d, key) }
	wid, ok1 := get("Width")
	hgt, ok2 := get("Height")
	src, ok3 := get("DataSource")
	if !ok1 || !ok2 || !ok3 || wid.Type != object.Int || hgt.Type != object.Int {
		return fail(object.ErrTypeCheck)
	}
	bits := int64(1)
	if b, ok := get("BitsPerComponent"); ok && b.Type == object.Int {
		bits = b.IntVal
	}
	m := graphics.Identity()
	if mo, ok := get("ImageMatrix"); ok {
		if mm, err := ctx.readMatrix(mo); err == nil {
			m = mm
		}
	}
	var decode []float64
	if dec, ok := get("Decode"); ok && (dec.Type == object.Array || dec.Type == object.PackedArray) {
		for _, v := range ctx.VM.ArraySlice(dec) {
			if v.IsNumber() {
				decode = append(decode, v.Number())
			}
		}
	}
	ncomp := ctx.GS.Color.Space.NComp
	if mask {
		ncomp = 1
	}
	rowBytes := (int(wid.IntVal)*ncomp*int(bits) + 7) / 8
	data, derr := ctx.readImageData(src, rowBytes*int(hgt.IntVal))
	if derr != nil {
		return derr
	}
	ctx.Op.Pop()
	ctx.DL.SyncClip(ctx.GS)
	if mask {
		invert := false
		if len(decode) >= 1 && decode[0] == 1 {
			invert = true
		}
		rgb, cerr := ctx.currentRGB()
		if cerr != nil {
			return cerr
		}
		ctx.DL.Append(graphics.ImageMaskElement{
			Width: int(wid.IntVal), Height: int(hgt.IntVal),
			Matrix: m, CTM: ctx.GS.CTM,
			Data: data, Invert: invert, Color: rgb,
		})
		return nil
	}
	ctx.DL.Append(graphics.ImageElement{
		Width: int(wid.IntVal), Height: int(hgt.IntVal), Bits: int(bits),
		Matrix: m, CTM: ctx.GS.CTM, Data: data,
		Decode: decode, NComp: ncomp,
	})
	return nil
}

func opImageMask(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if top.Type == object.Dict {
		return ctx.imageFromDict(top, true)
	}
	return ctx.imageLevel1(true)
}

func opColorImage(ctx *Context) *PSError {
	ncomp, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	multi, err2 := ctx.peekType(1, object.Bool)
	if err2 != nil {
		return err2
	}
	if multi.BoolVal {
		// One source per component is not supported by this builder.
		return fail(object.ErrUndefined)
	}
	if ncomp != 1 && ncomp != 3 && ncomp != 4 {
		return fail(object.ErrRangeCheck)
	}
	src, e := ctx.Op.Peek(2)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	mtx, e := ctx.Op.Peek(3)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, merr := ctx.readMatrix(mtx)
	if merr != nil {
		return merr
	}
	bits, berr := ctx.peekInt(4)
	if berr != nil {
		return berr
	}
	hgt, herr := ctx.peekInt(5)
	if herr != nil {
		return herr
	}
	wid, werr := ctx.peekInt(6)
	if werr != nil {
		return werr
	}
	if wid <= 0 || hgt <= 0 {
		return fail(object.ErrRangeCheck)
	}
	rowBytes := (int(wid)*int(ncomp)*int(bits) + 7) / 8
	data, derr := ctx.readImageData(src, rowBytes*int(hgt))
	if derr != nil {
		return derr
	}
	ctx.Op.PopN(7)
	ctx.DL.SyncClip(ctx.GS)
	ctx.DL.Append(graphics.ColorImageElement{
		Width: int(wid), Height: int(hgt), Bits: int(bits),
		Matrix: m, CTM: ctx.GS.CTM, Data: data, NComp: int(ncomp),
	})
	return nil
}
