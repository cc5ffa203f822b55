package interp

import "github.com/postforge/postforge/object"

func registerParamOps(def defFunc) {
	def("setsystemparams", opSetSystemParams)
	def("currentsystemparams", opCurrentSystemParams)
	def("setuserparams", opSetUserParams)
	def("currentuserparams", opCurrentUserParams)
	def("setdevparams", opSetDevParams)
	def("currentdevparams", opCurrentDevParams)
}

// setsystemparams: StartJobPassword is write-only; the current password
// must match Password when one is already set.
func opSetSystemParams(ctx *Context) *PSError {
	d, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	if ctx.startJobPassword != "" {
		pw, ok := ctx.VM.DictGetName(d, "Password")
		if !ok || pw.Type != object.String ||
			string(ctx.VM.StringBytes(pw)) != ctx.startJobPassword {
			return fail(object.ErrInvalidAccess)
		}
	}
	if v, ok := ctx.VM.DictGetName(d, "StartJobPassword"); ok && v.Type == object.String {
		ctx.startJobPassword = string(ctx.VM.StringBytes(v))
	}
	if v, ok := ctx.VM.DictGetName(d, "MaxFontCache"); ok && v.Type == object.Int {
		ctx.maxFontCache = v.IntVal
	}
	ctx.Op.Pop()
	return nil
}

func opCurrentSystemParams(ctx *Context) *PSError {
	d := ctx.VM.NewDict(4)
	// The password itself never reads back.
	ctx.VM.DictPutName(d, "MaxFontCache", object.MakeInt(ctx.maxFontCache))
	ctx.VM.DictPutName(d, "CurInputDevice", ctx.VM.NewStringFrom([]byte("%stdin")))
	ctx.VM.DictPutName(d, "CurOutputDevice", ctx.VM.NewStringFrom([]byte("%stdout")))
	return ctx.pushAll(d)
}

func opSetUserParams(ctx *Context) *PSError {
	d, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	if v, ok := ctx.VM.DictGetName(d, "MaxOpStack"); ok && v.Type == object.Int {
		if v.IntVal < int64(ctx.Op.Depth()) {
			return fail(object.ErrRangeCheck)
		}
		ctx.Op.SetLimit(int(v.IntVal))
	}
	if v, ok := ctx.VM.DictGetName(d, "MaxExecStack"); ok && v.Type == object.Int {
		if v.IntVal < int64(ctx.Exec.Depth()) {
			return fail(object.ErrRangeCheck)
		}
		ctx.Exec.SetLimit(int(v.IntVal))
	}
	if v, ok := ctx.VM.DictGetName(d, "MaxDictStack"); ok && v.Type == object.Int {
		if v.IntVal < int64(ctx.Dicts.Depth()) {
			return fail(object.ErrRangeCheck)
		}
		ctx.Dicts.SetLimit(int(v.IntVal))
	}
	if v, ok := ctx.VM.DictGetName(d, "ExecutionHistory"); ok && v.Type == object.Bool {
		ctx.execHistory = v.BoolVal
		if !v.BoolVal {
			ctx.history = nil
		}
	}
	if v, ok := ctx.VM.DictGetName(d, "ExecutionHistorySize"); ok && v.Type == object.Int {
		if v.IntVal < 1 {
			return fail(object.ErrRangeCheck)
		}
		ctx.execHistorySize = int(v.IntVal)
	}
	ctx.Op.Pop()
	return nil
}

func opCurrentUserParams(ctx *Context) *PSError {
	d := ctx.VM.NewDict(8)
	ctx.VM.DictPutName(d, "MaxOpStack", object.MakeInt(int64(ctx.Op.Limit())))
	ctx.VM.DictPutName(d, "MaxExecStack", object.MakeInt(int64(ctx.Exec.Limit())))
	ctx.VM.DictPutName(d, "MaxDictStack", object.MakeInt(int64(ctx.Dicts.Limit())))
	ctx.VM.DictPutName(d, "ExecutionHistory", object.MakeBool(ctx.execHistory))
	ctx.VM.DictPutName(d, "ExecutionHistorySize", object.MakeInt(int64(ctx.execHistorySize)))
	return ctx.pushAll(d)
}

func opSetDevParams(ctx *Context) *PSError {
	if _, err := ctx.peekType(0, object.Dict); err != nil {
		return err
	}
	if _, err := ctx.peekType(1, object.String); err != nil {
		return err
	}
	ctx.Op.PopN(2)
	return nil
}

func opCurrentDevParams(ctx *Context) *PSError {
	if _, err := ctx.peekType(0, object.String); err != nil {
		return err
	}
	ctx.Op.Pop()
	return ctx.pushAll(ctx.VM.NewDict(0))
}
