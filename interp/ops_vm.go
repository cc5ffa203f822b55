package interp

import "github.com/postforge/postforge/object"

func registerVMOps(def defFunc) {
	def("save", opSave)
	def("restore", opRestore)
	def("setglobal", opSetGlobal)
	def("currentglobal", opCurrentGlobal)
	def("gcheck", opGcheck)
	def("vmstatus", opVMStatus)
	def("vmreclaim", opVMReclaim)
	def("setvmthreshold", opSetVMThreshold)
}

// opSave snapshots the VM and the graphics state together.
func opSave(ctx *Context) *PSError {
	sv := ctx.VM.Save()
	gs := ctx.GS.Clone()
	gs.FromSave = true
	ctx.GStack = append(ctx.GStack, gs)
	return ctx.pushAll(sv)
}

// opRestore rolls VM back to the save point and reinstates the graphics
// state pushed by the matching save. Composites allocated after the
// save must not remain referenced from any stack.
func opRestore(ctx *Context) *PSError {
	sv, err := ctx.peekType(0, object.Save)
	if err != nil {
		return err
	}
	rec, ok := sv.Val.(*object.SaveRecord)
	if !ok || !rec.Active() {
		return fail(object.ErrInvalidRestore)
	}
	// The save operand itself is popped before the reachability scan.
	ctx.Op.Pop()
	for _, stk := range []*object.Stack{ctx.Op, ctx.Exec, ctx.Dicts} {
		for _, o := range stk.Items() {
			if o.IsComposite() && ctx.VM.AllocatedAfter(o, sv) {
				ctx.Op.Push(sv)
				return fail(object.ErrInvalidRestore)
			}
		}
	}
	if e := ctx.VM.Restore(sv); e != nil {
		ctx.Op.Push(sv)
		return wrapErr(e, sv)
	}
	// Pop graphics states down through the one the save pushed.
	for i := len(ctx.GStack) - 1; i >= 0; i-- {
		st := ctx.GStack[i]
		ctx.GStack = ctx.GStack[:i]
		if st.FromSave {
			st.FromSave = false
			ctx.GS = st
			break
		}
	}
	return nil
}

func opSetGlobal(ctx *Context) *PSError {
	b, err := ctx.peekType(0, object.Bool)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.VM.AllocGlobal = b.BoolVal
	return nil
}

func opCurrentGlobal(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeBool(ctx.VM.AllocGlobal))
}

// opGcheck reports whether the operand's backing lives in global VM; a
// static property of the object.
func opGcheck(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	if o.IsComposite() {
		return ctx.pushAll(object.MakeBool(o.Global))
	}
	// Simple objects are effectively global.
	return ctx.pushAll(object.MakeBool(true))
}

func opVMStatus(ctx *Context) *PSError {
	return ctx.pushAll(
		object.MakeInt(int64(ctx.VM.SaveLevel())),
		object.MakeInt(0),
		object.MakeInt(0),
	)
}

func opVMReclaim(ctx *Context) *PSError {
	_, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return nil // collection belongs to the host runtime
}

func opSetVMThreshold(ctx *Context) *PSError {
	_, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return nil
}
