package interp

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerMatrixOps(def defFunc) {
	def("matrix", opMatrix)
	def("initmatrix", opInitMatrix)
	def("identmatrix", opIdentMatrix)
	def("defaultmatrix", opDefaultMatrix)
	def("currentmatrix", opCurrentMatrix)
	def("setmatrix", opSetMatrix)
	def("translate", opTranslate)
	def("scale", opScale)
	def("rotate", opRotate)
	def("concat", opConcat)
	def("concatmatrix", opConcatMatrix)
	def("transform", opTransform)
	def("dtransform", opDtransform)
	def("itransform", opItransform)
	def("idtransform", opIdtransform)
	def("invertmatrix", opInvertMatrix)
}

func isMatrixObj(o object.Object) bool {
	return (o.Type == object.Array || o.Type == object.PackedArray) && o.Length == 6
}

func (ctx *Context) readMatrix(o object.Object) (graphics.Matrix, *PSError) {
	var m graphics.Matrix
	if !isMatrixObj(o) {
		return m, fail(object.ErrTypeCheck)
	}
	if o.Access < object.ReadOnly {
		return m, fail(object.ErrInvalidAccess)
	}
	for i, e := range ctx.VM.ArraySlice(o) {
		if !e.IsNumber() {
			return m, fail(object.ErrTypeCheck)
		}
		m[i] = e.Number()
	}
	return m, nil
}

func (ctx *Context) writeMatrix(o object.Object, m graphics.Matrix) *PSError {
	if !isMatrixObj(o) {
		return fail(object.ErrTypeCheck)
	}
	for i, v := range m {
		if err := ctx.VM.ArrayPut(o, i, object.MakeReal(v)); err != nil {
			return wrapErr(err, o)
		}
	}
	return nil
}

func (ctx *Context) matrixFrom(m graphics.Matrix) object.Object {
	elems := make([]object.Object, 6)
	for i, v := range m {
		elems[i] = object.MakeReal(v)
	}
	return ctx.VM.NewArrayFrom(elems)
}

func opMatrix(ctx *Context) *PSError {
	return ctx.pushAll(ctx.matrixFrom(graphics.Identity()))
}

func opInitMatrix(ctx *Context) *PSError {
	ctx.GS.SetCTM(graphics.Identity())
	return nil
}

func opIdentMatrix(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if e := ctx.writeMatrix(o, graphics.Identity()); e != nil {
		return e
	}
	return nil
}

func opDefaultMatrix(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	return ctx.writeMatrix(o, graphics.Identity())
}

func opCurrentMatrix(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	return ctx.writeMatrix(o, ctx.GS.CTM)
}

func opSetMatrix(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, e := ctx.readMatrix(o)
	if e != nil {
		return e
	}
	ctx.Op.Pop()
	ctx.GS.SetCTM(m)
	return nil
}

// twoNumOrMatrix handles the x y / x y matrix operator forms shared by
// translate and scale.
func (ctx *Context) twoNumOrMatrix(apply func(a, b float64) graphics.Matrix) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if isMatrixObj(top) {
		b, e := ctx.peekNum(1)
		if e != nil {
			return e
		}
		a, e := ctx.peekNum(2)
		if e != nil {
			return e
		}
		if e := ctx.writeMatrix(top, apply(a, b)); e != nil {
			return e
		}
		ctx.Op.PopN(3)
		return ctx.pushAll(top)
	}
	b, e := ctx.peekNum(0)
	if e != nil {
		return e
	}
	a, e := ctx.peekNum(1)
	if e != nil {
		return e
	}
	ctx.Op.PopN(2)
	ctx.GS.SetCTM(apply(a, b).Mul(ctx.GS.CTM))
	return nil
}

func opTranslate(ctx *Context) *PSError {
	return ctx.twoNumOrMatrix(graphics.Translation)
}

func opScale(ctx *Context) *PSError {
	return ctx.twoNumOrMatrix(graphics.Scaling)
}

func opRotate(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if isMatrixObj(top) {
		deg, e := ctx.peekNum(1)
		if e != nil {
			return e
		}
		if e := ctx.writeMatrix(top, graphics.Rotation(deg)); e != nil {
			return e
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(top)
	}
	deg, e := ctx.peekNum(0)
	if e != nil {
		return e
	}
	ctx.Op.Pop()
	ctx.GS.SetCTM(graphics.Rotation(deg).Mul(ctx.GS.CTM))
	return nil
}

func opConcat(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, e := ctx.readMatrix(o)
	if e != nil {
		return e
	}
	ctx.Op.Pop()
	ctx.GS.SetCTM(m.Mul(ctx.GS.CTM))
	return nil
}

func opConcatMatrix(ctx *Context) *PSError {
	dst, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	o2, err := ctx.Op.Peek(1)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	o1, err := ctx.Op.Peek(2)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m2, e := ctx.readMatrix(o2)
	if e != nil {
		return e
	}
	m1, e := ctx.readMatrix(o1)
	if e != nil {
		return e
	}
	if e := ctx.writeMatrix(dst, m1.Mul(m2)); e != nil {
		return e
	}
	ctx.Op.PopN(3)
	return ctx.pushAll(dst)
}

// pointOp covers transform/dtransform/itransform/idtransform: two
// numbers with an optional explicit matrix.
func (ctx *Context) pointOp(delta, inverse bool) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m := ctx.GS.CTM
	consume := 2
	yIdx := 0
	if isMatrixObj(top) {
		var e *PSError
		if m, e = ctx.readMatrix(top); e != nil {
			return e
		}
		consume = 3
		yIdx = 1
	}
	y, e := ctx.peekNum(yIdx)
	if e != nil {
		return e
	}
	x, e := ctx.peekNum(yIdx + 1)
	if e != nil {
		return e
	}
	if inverse {
		inv, ok := m.Invert()
		if !ok {
			return fail(object.ErrUndefinedResult)
		}
		m = inv
	}
	var ox, oy float64
	if delta {
		ox, oy = m.ApplyDelta(x, y)
	} else {
		ox, oy = m.Apply(x, y)
	}
	ctx.Op.PopN(consume)
	return ctx.pushAll(object.MakeReal(ox), object.MakeReal(oy))
}

func opTransform(ctx *Context) *PSError   { return ctx.pointOp(false, false) }
func opDtransform(ctx *Context) *PSError  { return ctx.pointOp(true, false) }
func opItransform(ctx *Context) *PSError  { return ctx.pointOp(false, true) }
func opIdtransform(ctx *Context) *PSError { return ctx.pointOp(true, true) }

func opInvertMatrix(ctx *Context) *PSError {
	dst, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	src, err := ctx.Op.Peek(1)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	m, e := ctx.readMatrix(src)
	if e != nil {
		return e
	}
	inv, ok := m.Invert()
	if !ok {
		return fail(object.ErrUndefinedResult)
	}
	if e := ctx.writeMatrix(dst, inv); e != nil {
		return e
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(dst)
}
