package interp

import "github.com/postforge/postforge/object"

// Array operators plus the polymorphic get/put/length/getinterval/
// putinterval/forall that also serve dicts and strings.
func registerArrayOps(def defFunc) {
	def("array", opArray)
	def("length", opLength)
	def("get", opGet)
	def("put", opPut)
	def("getinterval", opGetInterval)
	def("putinterval", opPutInterval)
	def("astore", opAstore)
	def("aload", opAload)
	def("forall", opForall)
	def("packedarray", opPackedArray)
	def("setpacking", opSetPacking)
	def("currentpacking", opCurrentPacking)
}

func opArray(ctx *Context) *PSError {
	n, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if n < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(ctx.VM.NewArray(int(n)))
}

func opLength(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	var n int
	switch o.Type {
	case object.Array, object.PackedArray, object.String:
		if o.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		n = o.Length
	case object.Dict:
		if o.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		n = ctx.VM.DictLength(o)
	case object.Name:
		n = len(o.NameVal)
	default:
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeInt(int64(n)))
}

func opGet(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	key, _ := ctx.Op.Peek(0)
	src, _ := ctx.Op.Peek(1)
	switch src.Type {
	case object.Array, object.PackedArray:
		if src.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		if key.Type != object.Int {
			return fail(object.ErrTypeCheck)
		}
		v, err := ctx.VM.ArrayGet(src, int(key.IntVal))
		if err != nil {
			return wrapErr(err, key)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(v)
	case object.String:
		if src.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		if key.Type != object.Int {
			return fail(object.ErrTypeCheck)
		}
		b, err := ctx.VM.StringGet(src, int(key.IntVal))
		if err != nil {
			return wrapErr(err, key)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(object.MakeInt(b))
	case object.Dict:
		if src.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		v, ok := ctx.VM.DictGet(src, key)
		if !ok {
			return psErr(object.ErrUndefined, key)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(v)
	}
	return fail(object.ErrTypeCheck)
}

func opPut(ctx *Context) *PSError {
	if err := ctx.need(3); err != nil {
		return err
	}
	val, _ := ctx.Op.Peek(0)
	key, _ := ctx.Op.Peek(1)
	dst, _ := ctx.Op.Peek(2)
	switch dst.Type {
	case object.Array:
		if key.Type != object.Int {
			return fail(object.ErrTypeCheck)
		}
		if err := ctx.VM.ArrayPut(dst, int(key.IntVal), val); err != nil {
			return wrapErr(err, key)
		}
	case object.String:
		if key.Type != object.Int {
			return fail(object.ErrTypeCheck)
		}
		if val.Type != object.Int {
			return fail(object.ErrTypeCheck)
		}
		if err := ctx.VM.StringPut(dst, int(key.IntVal), val.IntVal); err != nil {
			return wrapErr(err, key)
		}
	case object.Dict:
		if err := ctx.VM.DictPut(dst, key, val); err != nil {
			return wrapErr(err, key)
		}
	default:
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.PopN(3)
	return nil
}

func opGetInterval(ctx *Context) *PSError {
	count, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	start, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	src, err2 := ctx.peekType(2, object.Array, object.PackedArray, object.String)
	if err2 != nil {
		return err2
	}
	if src.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	var sub object.Object
	var e error
	if src.Type == object.String {
		sub, e = object.StringInterval(src, int(start), int(count))
	} else {
		sub, e = object.ArrayInterval(src, int(start), int(count))
	}
	if e != nil {
		return wrapErr(e, src)
	}
	ctx.Op.PopN(3)
	return ctx.pushAll(sub)
}

func opPutInterval(ctx *Context) *PSError {
	if err := ctx.need(3); err != nil {
		return err
	}
	src, _ := ctx.Op.Peek(0)
	start, err := ctx.peekInt(1)
	if err != nil {
		return err
	}
	dst, _ := ctx.Op.Peek(2)
	var e error
	switch {
	case dst.Type == object.Array && (src.Type == object.Array || src.Type == object.PackedArray):
		e = ctx.VM.ArrayPutInterval(dst, int(start), src)
	case dst.Type == object.String && src.Type == object.String:
		e = ctx.VM.StringPutInterval(dst, int(start), src)
	default:
		return fail(object.ErrTypeCheck)
	}
	if e != nil {
		return wrapErr(e, dst)
	}
	ctx.Op.PopN(3)
	return nil
}

func opAstore(ctx *Context) *PSError {
	arr, err := ctx.peekType(0, object.Array)
	if err != nil {
		return err
	}
	if arr.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	if ctx.Op.Depth()-1 < arr.Length {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	for i := arr.Length - 1; i >= 0; i-- {
		v, _ := ctx.Op.Pop()
		if e := ctx.VM.ArrayPut(arr, i, v); e != nil {
			return wrapErr(e, arr)
		}
	}
	return ctx.pushAll(arr)
}

func opAload(ctx *Context) *PSError {
	arr, err := ctx.peekType(0, object.Array, object.PackedArray)
	if err != nil {
		return err
	}
	if arr.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.Pop()
	for _, v := range ctx.VM.ArraySlice(arr) {
		if e := ctx.Op.Push(v); e != nil {
			return wrapErr(e, arr)
		}
	}
	return ctx.pushAll(arr)
}

// opForall installs a Loop marker; each engine visit advances one
// element.
func opForall(ctx *Context) *PSError {
	proc, err := ctx.peekType(0, object.Array, object.PackedArray)
	if err != nil {
		return err
	}
	src, err2 := ctx.peekType(1, object.Array, object.PackedArray, object.String, object.Dict)
	if err2 != nil {
		return err2
	}
	if src.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.PopN(2)
	st := &loopState{kind: loopForAll, proc: proc, src: src}
	if src.Type == object.Dict {
		st.pairs = ctx.VM.DictPairs(src)
	}
	return ctx.pushExecutable(loopMarker(st))
}

func opPackedArray(ctx *Context) *PSError {
	n, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if n < 0 || int64(ctx.Op.Depth()-1) < n {
		if n < 0 {
			return fail(object.ErrRangeCheck)
		}
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	elems := make([]object.Object, n)
	for i := int(n) - 1; i >= 0; i-- {
		elems[i], _ = ctx.Op.Pop()
	}
	return ctx.pushAll(ctx.VM.NewPackedArray(elems))
}

func opSetPacking(ctx *Context) *PSError {
	b, err := ctx.peekType(0, object.Bool)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.packing = b.BoolVal
	return nil
}

func opCurrentPacking(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeBool(ctx.packing))
}
