package interp

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerStackOps(def defFunc) {
	def("pop", opPop)
	def("exch", opExch)
	def("dup", opDup)
	def("copy", opCopy)
	def("index", opIndex)
	def("roll", opRoll)
	def("clear", opClear)
	def("count", opCount)
	def("mark", opMark)
	def("[", opMark)
	def("]", opArrayClose)
	def("<<", opMark)
	def(">>", opDictClose)
	def("cleartomark", opClearToMark)
	def("counttomark", opCountToMark)
}

func opPop(ctx *Context) *PSError {
	if err := ctx.need(1); err != nil {
		return err
	}
	ctx.Op.Pop()
	return nil
}

func opExch(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	a, _ := ctx.Op.Pop()
	b, _ := ctx.Op.Pop()
	return ctx.pushAll(a, b)
}

func opDup(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	return ctx.pushAll(top)
}

// opCopy is both the n-copy stack form and the composite copy form,
// selected by the top operand's type.
func opCopy(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if top.Type == object.Int {
		n := top.IntVal
		if n < 0 {
			return fail(object.ErrRangeCheck)
		}
		if int64(ctx.Op.Depth()-1) < n {
			return fail(object.ErrStackUnderflow)
		}
		ctx.Op.Pop()
		items := ctx.Op.Items()
		snapshot := append([]object.Object(nil), items[len(items)-int(n):]...)
		for _, o := range snapshot {
			if err := ctx.Op.Push(o); err != nil {
				return wrapErr(err, o)
			}
		}
		return nil
	}

	// Composite form: src dst copy.
	if e := ctx.need(2); e != nil {
		return e
	}
	dst := top
	src, _ := ctx.Op.Peek(1)
	if src.Type != dst.Type &&
		!(src.Type == object.PackedArray && dst.Type == object.Array) {
		return fail(object.ErrTypeCheck)
	}
	switch dst.Type {
	case object.Array:
		out, err := ctx.VM.ArrayCopyInto(src, dst)
		if err != nil {
			return wrapErr(err, dst)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(out)
	case object.String:
		if src.Access < object.ReadOnly || dst.Access < object.Unlimited {
			return fail(object.ErrInvalidAccess)
		}
		if src.Length > dst.Length {
			return fail(object.ErrRangeCheck)
		}
		if err := ctx.VM.StringPutInterval(dst, 0, src); err != nil {
			return wrapErr(err, dst)
		}
		out, _ := object.StringInterval(dst, 0, src.Length)
		ctx.Op.PopN(2)
		return ctx.pushAll(out)
	case object.Dict:
		if err := ctx.VM.DictCopyInto(src, dst); err != nil {
			return wrapErr(err, dst)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(dst)
	case object.GState:
		ctx.Op.PopN(2)
		if st, ok := src.Val.(*graphics.StateBox); ok {
			dstBox := dst.Val.(*graphics.StateBox)
			dstBox.State = st.State.Clone()
		}
		return ctx.pushAll(dst)
	}
	return fail(object.ErrTypeCheck)
}

func opIndex(ctx *Context) *PSError {
	n, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if n < 0 {
		return fail(object.ErrRangeCheck)
	}
	o, perr := ctx.Op.Peek(int(n) + 1)
	if perr != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	return ctx.pushAll(o)
}

func opRoll(ctx *Context) *PSError {
	j, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	n, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	if n < 0 || int64(ctx.Op.Depth()-2) < n {
		if n < 0 {
			return fail(object.ErrRangeCheck)
		}
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.PopN(2)
	if err := ctx.Op.Roll(int(n), int(j)); err != nil {
		return wrapErr(err, object.Object{})
	}
	return nil
}

func opClear(ctx *Context) *PSError {
	ctx.Op.Clear()
	return nil
}

func opCount(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(int64(ctx.Op.Depth())))
}

func opMark(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeMark())
}

func opClearToMark(ctx *Context) *PSError {
	n, err := ctx.Op.CountToMark()
	if err != nil {
		return wrapErr(err, object.Object{})
	}
	ctx.Op.PopN(n + 1)
	return nil
}

func opCountToMark(ctx *Context) *PSError {
	n, err := ctx.Op.CountToMark()
	if err != nil {
		return wrapErr(err, object.Object{})
	}
	return ctx.pushAll(object.MakeInt(int64(n)))
}

// opArrayClose builds a literal array from the objects above the mark.
func opArrayClose(ctx *Context) *PSError {
	n, err := ctx.Op.CountToMark()
	if err != nil {
		return wrapErr(err, object.Object{})
	}
	elems := make([]object.Object, n)
	for i := n - 1; i >= 0; i-- {
		elems[i], _ = ctx.Op.Pop()
	}
	ctx.Op.Pop() // the mark
	return ctx.pushAll(ctx.VM.NewArrayFrom(elems))
}

// opDictClose pairs up the objects above the mark into a dictionary.
func opDictClose(ctx *Context) *PSError {
	n, err := ctx.Op.CountToMark()
	if err != nil {
		return wrapErr(err, object.Object{})
	}
	if n%2 != 0 {
		return fail(object.ErrRangeCheck)
	}
	d := ctx.VM.NewDict(n / 2)
	items := ctx.Op.Items()
	base := len(items) - n
	for i := 0; i < n; i += 2 {
		if e := ctx.VM.DictPut(d, items[base+i], items[base+i+1]); e != nil {
			return wrapErr(e, items[base+i])
		}
	}
	ctx.Op.PopN(n + 1)
	return ctx.pushAll(d)
}
