package interp

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerGStateOps(def defFunc) {
	def("gsave", opGsave)
	def("grestore", opGrestore)
	def("grestoreall", opGrestoreAll)
	def("initgraphics", opInitGraphics)
	def("gstate", opGstate)
	def("currentgstate", opCurrentGstate)
	def("setgstate", opSetGstate)
	def("setlinewidth", opSetLineWidth)
	def("currentlinewidth", opCurrentLineWidth)
	def("setlinecap", opSetLineCap)
	def("currentlinecap", opCurrentLineCap)
	def("setlinejoin", opSetLineJoin)
	def("currentlinejoin", opCurrentLineJoin)
	def("setmiterlimit", opSetMiterLimit)
	def("currentmiterlimit", opCurrentMiterLimit)
	def("setdash", opSetDash)
	def("currentdash", opCurrentDash)
	def("setflat", opSetFlat)
	def("currentflat", opCurrentFlat)
	def("setstrokeadjust", opSetStrokeAdjust)
	def("currentstrokeadjust", opCurrentStrokeAdjust)
}

// The graphics-save stack holds at most 10 gsave levels per job; states
// pushed by save do not count against the budget.
const maxGsaveDepth = 10

func opGsave(ctx *Context) *PSError {
	if len(ctx.GStack) >= maxGsaveDepth+ctx.VM.SaveLevel() {
		return fail(object.ErrLimitCheck)
	}
	ctx.GStack = append(ctx.GStack, ctx.GS.Clone())
	return nil
}

func opGrestore(ctx *Context) *PSError {
	if len(ctx.GStack) == 0 {
		return nil
	}
	top := ctx.GStack[len(ctx.GStack)-1]
	if top.FromSave {
		// The matching state was pushed by save; reinstate a copy and
		// keep the original for restore.
		ctx.GS = top.Clone()
		return nil
	}
	ctx.GStack = ctx.GStack[:len(ctx.GStack)-1]
	ctx.GS = top
	return nil
}

func opGrestoreAll(ctx *Context) *PSError {
	for len(ctx.GStack) > 0 {
		top := ctx.GStack[len(ctx.GStack)-1]
		if top.FromSave {
			ctx.GS = top.Clone()
			return nil
		}
		ctx.GStack = ctx.GStack[:len(ctx.GStack)-1]
		ctx.GS = top
	}
	return nil
}

func opInitGraphics(ctx *Context) *PSError {
	pd := ctx.GS.PageDevice
	ctx.GS = graphics.NewState()
	ctx.GS.PageDevice = pd
	ctx.GS.ClipVersion = ctx.nextClipVersion()
	return nil
}

func opGstate(ctx *Context) *PSError {
	box := &graphics.StateBox{State: ctx.GS.Clone()}
	return ctx.pushAll(object.Object{
		Type:   object.GState,
		Access: object.Unlimited,
		Global: ctx.VM.AllocGlobal,
		Val:    box,
	})
}

func opCurrentGstate(ctx *Context) *PSError {
	o, err := ctx.peekType(0, object.GState)
	if err != nil {
		return err
	}
	box := o.Val.(*graphics.StateBox)
	box.State = ctx.GS.Clone()
	ctx.Op.Pop()
	return ctx.pushAll(o)
}

func opSetGstate(ctx *Context) *PSError {
	o, err := ctx.peekType(0, object.GState)
	if err != nil {
		return err
	}
	box := o.Val.(*graphics.StateBox)
	ctx.Op.Pop()
	ctx.GS = box.State.Clone()
	return nil
}

func opSetLineWidth(ctx *Context) *PSError {
	v, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.GS.LineWidth = v
	return nil
}

func opCurrentLineWidth(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeReal(ctx.GS.LineWidth))
}

func opSetLineCap(ctx *Context) *PSError {
	v, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if v < 0 || v > 2 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.LineCap = v
	return nil
}

func opCurrentLineCap(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(ctx.GS.LineCap))
}

func opSetLineJoin(ctx *Context) *PSError {
	v, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if v < 0 || v > 2 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.LineJoin = v
	return nil
}

func opCurrentLineJoin(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(ctx.GS.LineJoin))
}

func opSetMiterLimit(ctx *Context) *PSError {
	v, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	if v < 1 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	ctx.GS.MiterLimit = v
	return nil
}

func opCurrentMiterLimit(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeReal(ctx.GS.MiterLimit))
}

func opSetDash(ctx *Context) *PSError {
	offset, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	arr, err2 := ctx.peekType(1, object.Array, object.PackedArray)
	if err2 != nil {
		return err2
	}
	if arr.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	dash := make([]float64, 0, arr.Length)
	for _, e := range ctx.VM.ArraySlice(arr) {
		if !e.IsNumber() {
			return fail(object.ErrTypeCheck)
		}
		if e.Number() < 0 {
			return fail(object.ErrRangeCheck)
		}
		dash = append(dash, e.Number())
	}
	ctx.Op.PopN(2)
	ctx.GS.Dash = dash
	ctx.GS.DashOffset = offset
	return nil
}

func opCurrentDash(ctx *Context) *PSError {
	elems := make([]object.Object, len(ctx.GS.Dash))
	for i, v := range ctx.GS.Dash {
		elems[i] = object.MakeReal(v)
	}
	return ctx.pushAll(ctx.VM.NewArrayFrom(elems), object.MakeReal(ctx.GS.DashOffset))
}

func opSetFlat(ctx *Context) *PSError {
	v, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	if v < 0.2 {
		v = 0.2
	}
	if v > 100 {
		v = 100
	}
	ctx.Op.Pop()
	ctx.GS.Flatness = v
	return nil
}

func opCurrentFlat(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeReal(ctx.GS.Flatness))
}

func opSetStrokeAdjust(ctx *Context) *PSError {
	b, err := ctx.peekType(0, object.Bool)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.GS.StrokeAdjust = b.BoolVal
	return nil
}

func opCurrentStrokeAdjust(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeBool(ctx.GS.StrokeAdjust))
}
