package interp

import "github.com/postforge/postforge/object"

func registerBoolOps(def defFunc) {
	def("eq", opEq)
	def("ne", opNe)
	def("ge", opGe)
	def("gt", opGt)
	def("le", opLe)
	def("lt", opLt)
	def("and", opAnd)
	def("or", opOr)
	def("xor", opXor)
	def("not", opNot)
	def("bitshift", opBitshift)
	def("true", opTrue)
	def("false", opFalse)
	def("null", opNull)
}

func opEq(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	b, _ := ctx.Op.Pop()
	a, _ := ctx.Op.Pop()
	return ctx.pushAll(object.MakeBool(object.Equals(ctx.VM, a, b)))
}

func opNe(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	b, _ := ctx.Op.Pop()
	a, _ := ctx.Op.Pop()
	return ctx.pushAll(object.MakeBool(!object.Equals(ctx.VM, a, b)))
}

// compare orders numbers numerically and strings bytewise.
func compare(ctx *Context) (int, *PSError) {
	b, err := ctx.Op.Peek(0)
	if err != nil {
		return 0, fail(object.ErrStackUnderflow)
	}
	a, err := ctx.Op.Peek(1)
	if err != nil {
		return 0, fail(object.ErrStackUnderflow)
	}
	if a.IsNumber() && b.IsNumber() {
		av, bv := a.Number(), b.Number()
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	}
	if a.Type == object.String && b.Type == object.String {
		if a.Access < object.ReadOnly || b.Access < object.ReadOnly {
			return 0, fail(object.ErrInvalidAccess)
		}
		as := string(ctx.VM.StringBytes(a))
		bs := string(ctx.VM.StringBytes(b))
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fail(object.ErrTypeCheck)
}

func relational(ctx *Context, keep func(int) bool) *PSError {
	c, err := compare(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeBool(keep(c)))
}

func opGe(ctx *Context) *PSError { return relational(ctx, func(c int) bool { return c >= 0 }) }
func opGt(ctx *Context) *PSError { return relational(ctx, func(c int) bool { return c > 0 }) }
func opLe(ctx *Context) *PSError { return relational(ctx, func(c int) bool { return c <= 0 }) }
func opLt(ctx *Context) *PSError { return relational(ctx, func(c int) bool { return c < 0 }) }

func logical(ctx *Context, fb func(a, b bool) bool, fi func(a, b int64) int64) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	b, _ := ctx.Op.Peek(0)
	a, _ := ctx.Op.Peek(1)
	switch {
	case a.Type == object.Bool && b.Type == object.Bool:
		ctx.Op.PopN(2)
		return ctx.pushAll(object.MakeBool(fb(a.BoolVal, b.BoolVal)))
	case a.Type == object.Int && b.Type == object.Int:
		ctx.Op.PopN(2)
		return ctx.pushAll(object.MakeInt(fi(a.IntVal, b.IntVal)))
	}
	return fail(object.ErrTypeCheck)
}

func opAnd(ctx *Context) *PSError {
	return logical(ctx, func(a, b bool) bool { return a && b }, func(a, b int64) int64 { return a & b })
}

func opOr(ctx *Context) *PSError {
	return logical(ctx, func(a, b bool) bool { return a || b }, func(a, b int64) int64 { return a | b })
}

func opXor(ctx *Context) *PSError {
	return logical(ctx, func(a, b bool) bool { return a != b }, func(a, b int64) int64 { return a ^ b })
}

func opNot(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	switch o.Type {
	case object.Bool:
		ctx.Op.Pop()
		return ctx.pushAll(object.MakeBool(!o.BoolVal))
	case object.Int:
		ctx.Op.Pop()
		return ctx.pushAll(object.MakeInt(^o.IntVal))
	}
	return fail(object.ErrTypeCheck)
}

func opBitshift(ctx *Context) *PSError {
	shift, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	v, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	var out int64
	if shift >= 0 {
		out = int64(int32(v) << uint(shift))
	} else {
		out = int64(int32(v) >> uint(-shift))
	}
	return ctx.pushAll(object.MakeInt(out))
}

func opTrue(ctx *Context) *PSError  { return ctx.pushAll(object.MakeBool(true)) }
func opFalse(ctx *Context) *PSError { return ctx.pushAll(object.MakeBool(false)) }
func opNull(ctx *Context) *PSError  { return ctx.pushAll(object.MakeNull()) }
