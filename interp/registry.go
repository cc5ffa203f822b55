package interp

import "github.com/postforge/postforge/object"

// defFunc installs one operator into systemdict.
type defFunc func(name string, fn OpFunc)

// registerOperators builds systemdict. Every operator follows the same
// contract: validate with non-destructive peeks, then pop and act.
func (ctx *Context) registerOperators() {
	def := func(name string, fn OpFunc) {
		ctx.VM.DictPutName(ctx.SystemDict, name, object.MakeOperator(name, fn))
	}
	registerStackOps(def)
	registerMathOps(def)
	registerArrayOps(def)
	registerDictOps(def)
	registerStringOps(def)
	registerBoolOps(def)
	registerControlOps(def)
	registerTypeOps(def)
	registerFileOps(def)
	registerVMOps(def)
	registerMiscOps(def)
	registerMatrixOps(def)
	registerGStateOps(def)
	registerColorOps(def)
	registerPathOps(def)
	registerPaintOps(def)
	registerFontOps(def)
	registerDeviceOps(def)
	registerParamOps(def)
	registerResourceOps(def)
	registerPatternOps(def)
	registerJobOps(def)
}

// fail returns a PSError whose command the engine fills in with the
// operator being dispatched.
func fail(name object.Err) *PSError {
	return &PSError{Name: name}
}

// need validates stack depth without consuming.
func (ctx *Context) need(n int) *PSError {
	if ctx.Op.Depth() < n {
		return fail(object.ErrStackUnderflow)
	}
	return nil
}

// peekNum returns the numeric value i objects below the top.
func (ctx *Context) peekNum(i int) (float64, *PSError) {
	o, err := ctx.Op.Peek(i)
	if err != nil {
		return 0, fail(object.ErrStackUnderflow)
	}
	if !o.IsNumber() {
		return 0, fail(object.ErrTypeCheck)
	}
	return o.Number(), nil
}

// peekInt returns the integer i objects below the top.
func (ctx *Context) peekInt(i int) (int64, *PSError) {
	o, err := ctx.Op.Peek(i)
	if err != nil {
		return 0, fail(object.ErrStackUnderflow)
	}
	if o.Type != object.Int {
		return 0, fail(object.ErrTypeCheck)
	}
	return o.IntVal, nil
}

// peekType returns the object i below the top after a type check.
func (ctx *Context) peekType(i int, types ...object.Type) (object.Object, *PSError) {
	o, err := ctx.Op.Peek(i)
	if err != nil {
		return object.Object{}, fail(object.ErrStackUnderflow)
	}
	for _, t := range types {
		if o.Type == t {
			return o, nil
		}
	}
	return object.Object{}, fail(object.ErrTypeCheck)
}

// pushAll pushes results in order, mapping overflow onto the operator.
func (ctx *Context) pushAll(objs ...object.Object) *PSError {
	for _, o := range objs {
		if err := ctx.Op.Push(o); err != nil {
			return wrapErr(err, o)
		}
	}
	return nil
}

// intResult narrows a computed value to Int when it fits and the
// operands were integers; otherwise it promotes to Real.
func intResult(v float64, wasInt bool) object.Object {
	if wasInt && v >= -2147483648 && v <= 2147483647 && v == float64(int64(v)) {
		return object.MakeInt(int64(v))
	}
	return object.MakeReal(v)
}
