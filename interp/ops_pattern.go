package interp

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerPatternOps(def defFunc) {
	def("makepattern", opMakePattern)
	def("setpattern", opSetPattern)
	def("execform", opExecForm)
}

// opMakePattern instantiates a pattern: the prototype dict plus the
// pattern matrix concatenated with the CTM at instantiation time. The
// pattern matrix is stored as given; pixel-grid adjustment for
// TilingType is not performed.
func opMakePattern(ctx *Context) *PSError {
	mtx, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, merr := ctx.readMatrix(mtx)
	if merr != nil {
		return merr
	}
	proto, e := ctx.peekType(1, object.Dict)
	if e != nil {
		return e
	}
	pt, ok := ctx.VM.DictGetName(proto, "PatternType")
	if !ok || pt.Type != object.Int || pt.IntVal < 1 || pt.IntVal > 2 {
		return fail(object.ErrRangeCheck)
	}
	if pt.IntVal == 1 {
		if _, ok := ctx.VM.DictGetName(proto, "PaintProc"); !ok {
			return fail(object.ErrUndefined)
		}
	}
	inst := ctx.VM.NewDict(ctx.VM.DictLength(proto) + 2)
	if cerr := ctx.VM.DictCopyInto(proto, inst); cerr != nil {
		return wrapErr(cerr, proto)
	}
	full := m.Mul(ctx.GS.CTM)
	ctx.VM.DictPutName(inst, "Matrix", ctx.matrixFrom(full))
	ctx.VM.DictPutName(inst, ".Instantiated", object.MakeBool(true))
	ctx.Op.PopN(2)
	return ctx.pushAll(inst)
}

// opSetPattern is the shortcut for setcolorspace Pattern + setcolor.
func opSetPattern(ctx *Context) *PSError {
	pat, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	cs := ctx.GS.Color.Space
	if cs.Kind != graphics.Pattern {
		cs = &graphics.ColorSpace{Kind: graphics.Pattern}
	}
	// Uncolored patterns keep the preceding underlying components.
	n := 0
	if paint, ok := ctx.VM.DictGetName(pat, "PaintType"); ok && paint.Type == object.Int && paint.IntVal == 2 {
		if cs.Under == nil {
			under := ctx.GS.Color.Space
			if under.Kind != graphics.Pattern {
				cs = &graphics.ColorSpace{Kind: graphics.Pattern, Under: under}
			}
		}
		if cs.Under != nil {
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

// opExecForm paints a form: gsave, concat the form matrix, run the
// PaintProc, grestore. The display list receives whatever the form
// paints.
func opExecForm(ctx *Context) *PSError {
	form, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	ft, ok := ctx.VM.DictGetName(form, "FormType")
	if !ok || ft.Type != object.Int || ft.IntVal != 1 {
		return fail(object.ErrRangeCheck)
	}
	proc, ok := ctx.VM.DictGetName(form, "PaintProc")
	if !ok || !isProc(proc) {
		return fail(object.ErrUndefined)
	}
	m := graphics.Identity()
	if mo, ok := ctx.VM.DictGetName(form, "Matrix"); ok {
		if mm, merr := ctx.readMatrix(mo); merr == nil {
			m = mm
		}
	}
	ctx.Op.Pop()
	ctx.GStack = append(ctx.GStack, ctx.GS.Clone())
	ctx.GS.SetCTM(m.Mul(ctx.GS.CTM))
	if err := ctx.Op.Push(form); err != nil {
		return wrapErr(err, form)
	}
	base := ctx.Exec.Depth()
	ctx.Exec.Push(hardReturnMarker())
	ctx.Exec.Push(proc)
	ctx.runUntil(base)
	if len(ctx.GStack) > 0 {
		ctx.GS = ctx.GStack[len(ctx.GStack)-1]
		ctx.GStack = ctx.GStack[:len(ctx.GStack)-1]
	}
	return nil
}
