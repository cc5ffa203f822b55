package interp

import (
	"math"

	"github.com/postforge/postforge/object"
)

func registerMathOps(def defFunc) {
	def("add", opAdd)
	def("sub", opSub)
	def("mul", opMul)
	def("div", opDiv)
	def("idiv", opIdiv)
	def("mod", opMod)
	def("abs", opAbs)
	def("neg", opNeg)
	def("ceiling", opCeiling)
	def("floor", opFloor)
	def("round", opRound)
	def("truncate", opTruncate)
	def("sqrt", opSqrt)
	def("atan", opAtan)
	def("cos", opCos)
	def("sin", opSin)
	def("exp", opExp)
	def("ln", opLn)
	def("log", opLog)
	def("rand", opRand)
	def("srand", opSrand)
	def("rrand", opRrand)
}

func binaryNums(ctx *Context) (a, b float64, bothInt bool, err *PSError) {
	if b, err = ctx.peekNum(0); err != nil {
		return
	}
	if a, err = ctx.peekNum(1); err != nil {
		return
	}
	oa, _ := ctx.Op.Peek(1)
	ob, _ := ctx.Op.Peek(0)
	bothInt = oa.Type == object.Int && ob.Type == object.Int
	return
}

func opAdd(ctx *Context) *PSError {
	a, b, bothInt, err := binaryNums(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(intResult(a+b, bothInt))
}

func opSub(ctx *Context) *PSError {
	a, b, bothInt, err := binaryNums(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(intResult(a-b, bothInt))
}

func opMul(ctx *Context) *PSError {
	a, b, bothInt, err := binaryNums(ctx)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(intResult(a*b, bothInt))
}

func opDiv(ctx *Context) *PSError {
	a, b, _, err := binaryNums(ctx)
	if err != nil {
		return err
	}
	if b == 0 {
		return fail(object.ErrUndefinedResult)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeReal(a / b))
}

func opIdiv(ctx *Context) *PSError {
	b, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	a, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	if b == 0 {
		return fail(object.ErrUndefinedResult)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeInt(a / b))
}

func opMod(ctx *Context) *PSError {
	b, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	a, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	if b == 0 {
		return fail(object.ErrUndefinedResult)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeInt(a % b))
}

func unaryNum(ctx *Context) (float64, bool, *PSError) {
	v, err := ctx.peekNum(0)
	if err != nil {
		return 0, false, err
	}
	o, _ := ctx.Op.Peek(0)
	return v, o.Type == object.Int, nil
}

func opAbs(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return ctx.pushAll(intResult(math.Abs(v), isInt))
}

func opNeg(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return ctx.pushAll(intResult(-v, isInt))
}

func opCeiling(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if isInt {
		return ctx.pushAll(object.MakeInt(int64(v)))
	}
	return ctx.pushAll(object.MakeReal(math.Ceil(v)))
}

func opFloor(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if isInt {
		return ctx.pushAll(object.MakeInt(int64(v)))
	}
	return ctx.pushAll(object.MakeReal(math.Floor(v)))
}

func opRound(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if isInt {
		return ctx.pushAll(object.MakeInt(int64(v)))
	}
	return ctx.pushAll(object.MakeReal(math.Round(v)))
}

func opTruncate(ctx *Context) *PSError {
	v, isInt, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if isInt {
		return ctx.pushAll(object.MakeInt(int64(v)))
	}
	return ctx.pushAll(object.MakeReal(math.Trunc(v)))
}

func opSqrt(ctx *Context) *PSError {
	v, _, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	if v < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(math.Sqrt(v)))
}

func opAtan(ctx *Context) *PSError {
	den, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	num, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	if num == 0 && den == 0 {
		return fail(object.ErrUndefinedResult)
	}
	ctx.Op.PopN(2)
	deg := math.Atan2(num, den) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return ctx.pushAll(object.MakeReal(deg))
}

func opCos(ctx *Context) *PSError {
	v, _, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(math.Cos(v * math.Pi / 180)))
}

func opSin(ctx *Context) *PSError {
	v, _, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(math.Sin(v * math.Pi / 180)))
}

func opExp(ctx *Context) *PSError {
	exp, err := ctx.peekNum(0)
	if err != nil {
		return err
	}
	base, err := ctx.peekNum(1)
	if err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeReal(math.Pow(base, exp)))
}

func opLn(ctx *Context) *PSError {
	v, _, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(math.Log(v)))
}

func opLog(ctx *Context) *PSError {
	v, _, err := unaryNum(ctx)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeReal(math.Log10(v)))
}

func opRand(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(ctx.randNext()))
}

func opSrand(ctx *Context) *PSError {
	seed, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.rngState = seed & 0x7FFFFFFF
	if ctx.rngState == 0 {
		ctx.rngState = 1
	}
	return nil
}

func opRrand(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(ctx.rngState))
}
