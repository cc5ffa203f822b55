package interp

import "github.com/postforge/postforge/object"

func registerDictOps(def defFunc) {
	def("dict", opDict)
	def("maxlength", opMaxLength)
	def("begin", opBegin)
	def("end", opEnd)
	def("def", opDef)
	def("load", opLoad)
	def("store", opStore)
	def("known", opKnown)
	def("where", opWhere)
	def("undef", opUndef)
	def("currentdict", opCurrentDict)
	def("countdictstack", opCountDictStack)
	def("dictstack", opDictStack)
	def("cleardictstack", opClearDictStack)
}

func opDict(ctx *Context) *PSError {
	n, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if n < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(ctx.VM.NewDict(int(n)))
}

func opMaxLength(ctx *Context) *PSError {
	d, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	if d.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeInt(int64(ctx.VM.DictMaxLength(d))))
}

func opBegin(ctx *Context) *PSError {
	d, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	if d.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	if e := ctx.Dicts.Push(d); e != nil {
		return wrapErr(e, d)
	}
	ctx.Op.Pop()
	return nil
}

func opEnd(ctx *Context) *PSError {
	// The permanent three are never popped.
	if ctx.Dicts.Depth() <= 3 {
		return fail(object.ErrDictStackUnderflow)
	}
	ctx.Dicts.Pop()
	return nil
}

func opDef(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	val, _ := ctx.Op.Peek(0)
	key, _ := ctx.Op.Peek(1)
	top, _ := ctx.Dicts.Peek(0)
	if top.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	if e := ctx.VM.DictPut(top, key, val); e != nil {
		return wrapErr(e, key)
	}
	ctx.Op.PopN(2)
	return nil
}

func opLoad(ctx *Context) *PSError {
	key, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	_, val, ok := ctx.LookupWhere(key)
	if !ok {
		return psErr(object.ErrUndefined, key)
	}
	ctx.Op.Pop()
	return ctx.pushAll(val)
}

func opStore(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	val, _ := ctx.Op.Peek(0)
	key, _ := ctx.Op.Peek(1)
	dict, _, ok := ctx.LookupWhere(key)
	if !ok {
		dict, _ = ctx.Dicts.Peek(0)
	}
	if dict.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	if e := ctx.VM.DictPut(dict, key, val); e != nil {
		return wrapErr(e, key)
	}
	ctx.Op.PopN(2)
	return nil
}

func opKnown(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	key, _ := ctx.Op.Peek(0)
	d, err := ctx.peekType(1, object.Dict)
	if err != nil {
		return err
	}
	if d.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	_, ok := ctx.VM.DictGet(d, key)
	ctx.Op.PopN(2)
	return ctx.pushAll(object.MakeBool(ok))
}

func opWhere(ctx *Context) *PSError {
	key, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	dict, _, ok := ctx.LookupWhere(key)
	ctx.Op.Pop()
	if !ok {
		return ctx.pushAll(object.MakeBool(false))
	}
	return ctx.pushAll(dict, object.MakeBool(true))
}

func opUndef(ctx *Context) *PSError {
	if err := ctx.need(2); err != nil {
		return err
	}
	key, _ := ctx.Op.Peek(0)
	d, err := ctx.peekType(1, object.Dict)
	if err != nil {
		return err
	}
	if e := ctx.VM.DictUndef(d, key); e != nil {
		return wrapErr(e, key)
	}
	ctx.Op.PopN(2)
	return nil
}

func opCurrentDict(ctx *Context) *PSError {
	top, err := ctx.Dicts.Peek(0)
	if err != nil {
		return fail(object.ErrDictStackUnderflow)
	}
	return ctx.pushAll(top)
}

func opCountDictStack(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(int64(ctx.Dicts.Depth())))
}

func opDictStack(ctx *Context) *PSError {
	arr, err := ctx.peekType(0, object.Array)
	if err != nil {
		return err
	}
	n := ctx.Dicts.Depth()
	if arr.Length < n {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	for i, d := range ctx.Dicts.Items() {
		if e := ctx.VM.ArrayPut(arr, i, d); e != nil {
			return wrapErr(e, arr)
		}
	}
	sub, _ := object.ArrayInterval(arr, 0, n)
	return ctx.pushAll(sub)
}

func opClearDictStack(ctx *Context) *PSError {
	ctx.Dicts.Truncate(3)
	return nil
}
