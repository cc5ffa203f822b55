package interp

import "github.com/postforge/postforge/object"

func registerControlOps(def defFunc) {
	def("exec", opExec)
	def("if", opIf)
	def("ifelse", opIfElse)
	def("for", opFor)
	def("repeat", opRepeat)
	def("loop", opLoop)
	def("exit", opExit)
	def("stop", opStop)
	def("stopped", opStopped)
	def("countexecstack", opCountExecStack)
	def("execstack", opExecStack)
	def("quit", opQuit)
	def("start", opStart)
}

func opExec(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !o.CheckAccess(object.ExecuteOnly) {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.Pop()
	return ctx.pushExecutable(o)
}

func isProc(o object.Object) bool {
	return (o.Type == object.Array || o.Type == object.PackedArray) &&
		o.Attrib == object.Executable
}

func opIf(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	cond, err2 := ctx.peekType(1, object.Bool)
	if err2 != nil {
		return err2
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.PopN(2)
	if cond.BoolVal {
		return ctx.pushExecutable(proc)
	}
	return nil
}

func opIfElse(ctx *Context) *PSError {
	procElse, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	procThen, err := ctx.Op.Peek(1)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	cond, err2 := ctx.peekType(2, object.Bool)
	if err2 != nil {
		return err2
	}
	if !isProc(procThen) || !isProc(procElse) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.PopN(3)
	if cond.BoolVal {
		return ctx.pushExecutable(procThen)
	}
	return ctx.pushExecutable(procElse)
}

// opFor keeps an integer control variable iff initial, increment, and
// limit are all integers.
func opFor(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	limit, e := ctx.peekNum(1)
	if e != nil {
		return e
	}
	incr, e := ctx.peekNum(2)
	if e != nil {
		return e
	}
	init, e := ctx.peekNum(3)
	if e != nil {
		return e
	}
	ol, _ := ctx.Op.Peek(1)
	oi, _ := ctx.Op.Peek(2)
	o0, _ := ctx.Op.Peek(3)
	allInt := ol.Type == object.Int && oi.Type == object.Int && o0.Type == object.Int
	ctx.Op.PopN(4)
	st := &loopState{kind: loopFor, proc: proc, isInt: allInt}
	if allInt {
		st.ctrlI, st.incrI, st.limitI = o0.IntVal, oi.IntVal, ol.IntVal
	} else {
		st.ctrlF, st.incrF, st.limitF = init, incr, limit
	}
	return ctx.pushExecutable(loopMarker(st))
}

func opRepeat(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	n, e := ctx.peekInt(1)
	if e != nil {
		return e
	}
	if n < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.PopN(2)
	return ctx.pushExecutable(loopMarker(&loopState{kind: loopRepeat, proc: proc, remaining: n}))
}

func opLoop(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushExecutable(loopMarker(&loopState{kind: loopPlain, proc: proc}))
}

func opExit(ctx *Context) *PSError {
	return ctx.exitUnwind()
}

func opStop(ctx *Context) *PSError {
	ctx.stopUnwind(true)
	return nil
}

func opStopped(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	if err := ctx.Exec.Push(stoppedMarker(ctx.Op.Depth())); err != nil {
		return wrapErr(err, o)
	}
	return ctx.pushExecutable(o)
}

func opCountExecStack(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(int64(ctx.Exec.Depth())))
}

func opExecStack(ctx *Context) *PSError {
	arr, err := ctx.peekType(0, object.Array)
	if err != nil {
		return err
	}
	n := ctx.Exec.Depth()
	if arr.Length < n {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	for i, o := range ctx.Exec.Items() {
		if e := ctx.VM.ArrayPut(arr, i, o); e != nil {
			return wrapErr(e, arr)
		}
	}
	sub, _ := object.ArrayInterval(arr, 0, n)
	return ctx.pushAll(sub)
}

// opQuit ends the interpreter by unwinding the whole execution stack.
func opQuit(ctx *Context) *PSError {
	ctx.Exec.Clear()
	return nil
}

// opStart runs the startup job: execute %stdin as a file.
func opStart(ctx *Context) *PSError {
	f, _ := ctx.stdFile("%stdin")
	return ctx.pushExecutable(f)
}
