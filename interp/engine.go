package interp

import (
	"io"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
	"github.com/postforge/postforge/parser"
)

// OpFunc is the callable payload of an Operator object.
type OpFunc func(ctx *Context) *PSError

type loopKind uint8

const (
	loopPlain loopKind = iota
	loopRepeat
	loopFor
	loopForAll
	loopPathForAll
	loopFileNameForAll
	loopKshow
	loopCshow
)

// loopState is the per-iteration state carried by a Loop marker on the
// execution stack. Each engine visit to the marker advances exactly one
// iteration.
type loopState struct {
	kind loopKind
	proc object.Object

	// repeat
	remaining int64

	// for
	isInt                bool
	ctrlI, incrI, limitI int64
	ctrlF, incrF, limitF float64

	// forall
	src   object.Object
	pairs [][2]object.Object
	idx   int

	// pathforall
	segs           []graphics.Segment
	mv, ln, cv, cl object.Object
	ictm           graphics.Matrix

	// filenameforall
	names   []string
	scratch object.Object

	// kshow / cshow
	str []byte
}

func loopMarker(st *loopState) object.Object {
	return object.Object{Type: object.LoopMark, Access: object.Unlimited, Val: st}
}

// stoppedMarker remembers the operand depth at the stopped boundary so
// an unwind can discard operands the aborted code left behind.
func stoppedMarker(opDepth int) object.Object {
	return object.Object{Type: object.StoppedMark, Access: object.Unlimited, IntVal: int64(opDepth)}
}

func hardReturnMarker() object.Object {
	return object.Object{Type: object.HardReturnMark, Access: object.Unlimited}
}

// Run drains the execution stack.
func (ctx *Context) Run() {
	ctx.runUntil(0)
}

// runUntil steps the engine until the execution stack depth falls back
// to floor. Nested execution (evalProc, execjob) re-enters here.
func (ctx *Context) runUntil(floor int) {
	for ctx.Exec.Depth() > floor {
		ctx.iterations++
		if ctx.pump != nil && ctx.iterations%pumpInterval == 0 {
			ctx.pump()
		}
		if ctx.interrupted.Swap(false) {
			ctx.raise(psErr(object.ErrInterrupt, object.MakeName("interrupt", object.Executable)))
			continue
		}
		top, err := ctx.Exec.Peek(0)
		if err != nil {
			return
		}
		ctx.recordHistory(top)
		ctx.step(top)
	}
}

// step dispatches one object from the top of the execution stack along
// one of the five paths, or advances a control-flow marker.
func (ctx *Context) step(top object.Object) {
	switch top.Type {
	case object.StoppedMark:
		// Reached naturally: the guarded code did not stop.
		ctx.Exec.Pop()
		if err := ctx.Op.Push(object.MakeBool(false)); err != nil {
			ctx.raise(wrapErr(err, top))
		}
		return
	case object.HardReturnMark:
		ctx.Exec.Pop()
		return
	case object.LoopMark:
		ctx.stepLoop(top.Val.(*loopState))
		return
	}

	// Path L: literal objects, and scalar types that always behave as
	// data regardless of attribute.
	if top.Attrib == object.Literal || alwaysData(top.Type) {
		ctx.Exec.Pop()
		if err := ctx.Op.Push(top); err != nil {
			ctx.raise(wrapErr(err, top))
		}
		return
	}

	switch top.Type {
	case object.Operator:
		// Path O.
		ctx.Exec.Pop()
		if e := top.Val.(OpFunc)(ctx); e != nil {
			if e.Cmd.Type == object.Null && e.Cmd.NameVal == "" {
				e.Cmd = top
			}
			ctx.raise(e)
		}
	case object.Name:
		// Path N: resolve through the dictionary stack; the bound value
		// replaces the name and is re-dispatched next iteration.
		val, ok := ctx.Lookup(top.NameVal)
		if !ok {
			ctx.Exec.Pop()
			ctx.raise(psErr(object.ErrUndefined, top))
			return
		}
		ctx.Exec.Replace(0, val)
	case object.Array, object.PackedArray:
		// Path A: peel the front element.
		ctx.stepProcedure(top)
	case object.File:
		ctx.stepFile(top)
	case object.String:
		ctx.stepString(top)
	case object.Null:
		// An executable null is popped and discarded.
		ctx.Exec.Pop()
	default:
		ctx.Exec.Pop()
		if err := ctx.Op.Push(top); err != nil {
			ctx.raise(wrapErr(err, top))
		}
	}
}

func alwaysData(t object.Type) bool {
	switch t {
	case object.Int, object.Real, object.Bool, object.Mark, object.Dict,
		object.Save, object.FontID, object.GState:
		return true
	}
	return false
}

// stepProcedure advances execution of a procedure body. The last
// element replaces the procedure on the execution stack, which is both
// tail-call optimization and stack-growth avoidance.
func (ctx *Context) stepProcedure(proc object.Object) {
	if proc.Length == 0 {
		ctx.Exec.Pop()
		return
	}
	elem, err := ctx.VM.ArrayGet(proc, 0)
	if err != nil {
		ctx.Exec.Pop()
		ctx.raise(wrapErr(err, proc))
		return
	}
	if proc.Length == 1 {
		ctx.Exec.Pop()
	} else {
		rest := proc
		rest.Start++
		rest.Length--
		ctx.Exec.Replace(0, rest)
	}
	// Nested procedures are data when encountered inside a procedure;
	// names, operators, and other executables run.
	if elem.Attrib == object.Executable &&
		elem.Type != object.Array && elem.Type != object.PackedArray {
		if err := ctx.Exec.Push(elem); err != nil {
			ctx.raise(wrapErr(err, elem))
		}
		return
	}
	if err := ctx.Op.Push(elem); err != nil {
		ctx.raise(wrapErr(err, elem))
	}
}

// stepFile asks the file's tokenizer for one token (Path T).
func (ctx *Context) stepFile(f object.Object) {
	h, ok := ctx.fileHandle(f)
	if !ok || !h.Open || h.R == nil {
		ctx.Exec.Pop()
		ctx.raise(psErr(object.ErrIOError, f))
		return
	}
	if h.tok == nil {
		tkn := parser.NewTokenizer(ctx.VM, h.R)
		tkn.Lookup = ctx.lookupImmediate
		h.tok = &tokenState{tkn: tkn}
	}
	obj, deferred, err := h.tok.tkn.Scan()
	if err == io.EOF {
		ctx.Exec.Pop()
		h.EOF = true
		ctx.closeNonStd(f, h)
		return
	}
	if err != nil {
		ctx.Exec.Pop()
		ctx.raise(wrapErr(err, f))
		return
	}
	ctx.dispatchToken(obj, deferred)
}

// stepString tokenizes an executable string in place, narrowing the
// window on the execution stack as bytes are consumed.
func (ctx *Context) stepString(s object.Object) {
	tkn := parser.NewStringTokenizer(ctx.VM, ctx.VM.StringBytes(s))
	tkn.Lookup = ctx.lookupImmediate
	obj, deferred, err := tkn.Scan()
	if err == io.EOF {
		ctx.Exec.Pop()
		return
	}
	consumed := tkn.Consumed()
	rest := s
	rest.Start += consumed
	rest.Length -= consumed
	if rest.Length <= 0 {
		ctx.Exec.Pop()
	} else {
		ctx.Exec.Replace(0, rest)
	}
	if err != nil {
		ctx.raise(wrapErr(err, s))
		return
	}
	ctx.dispatchToken(obj, deferred)
}

// dispatchToken routes a scanned token: brace-built procedures and
// literals go to the operand stack, executables to the execution stack.
func (ctx *Context) dispatchToken(obj object.Object, deferred bool) {
	if deferred || obj.Attrib == object.Literal {
		if err := ctx.Op.Push(obj); err != nil {
			ctx.raise(wrapErr(err, obj))
		}
		return
	}
	if err := ctx.Exec.Push(obj); err != nil {
		ctx.raise(wrapErr(err, obj))
	}
}

func (ctx *Context) closeNonStd(f object.Object, h *FileHandle) {
	if f.Slot <= 2 {
		return
	}
	h.Open = false
	if h.onDisk != nil {
		h.onDisk.Close()
		h.onDisk = nil
	}
}

// pushExecutable schedules an object for execution (the exec operator
// and the job server use it).
func (ctx *Context) pushExecutable(o object.Object) *PSError {
	if err := ctx.Exec.Push(o); err != nil {
		return wrapErr(err, o)
	}
	return nil
}

// stopUnwind implements stop: pop the execution stack down to the
// nearest Stopped marker and leave true behind. A HardReturn marker is
// a job boundary; unwinding stops there and the job ends.
func (ctx *Context) stopUnwind(pushResult bool) {
	items := ctx.Exec.Items()
	for i := len(items) - 1; i >= 0; i-- {
		switch items[i].Type {
		case object.StoppedMark:
			// The handler consumed the error; $error must not leak
			// into subsequent operations.
			ctx.VM.DictPutName(ctx.DollarErr, "newerror", object.MakeBool(false))
			ctx.Op.Truncate(int(items[i].IntVal))
			ctx.Exec.Truncate(i)
			if pushResult {
				ctx.Op.Push(object.MakeBool(true))
			}
			return
		case object.HardReturnMark:
			ctx.jobAborted = true
			ctx.Exec.Truncate(i + 1)
			return
		}
	}
	ctx.jobAborted = true
	ctx.Exec.Clear()
}

// exitUnwind implements exit: discard down to and including the nearest
// Loop marker. Stopped and job boundaries may not be crossed.
func (ctx *Context) exitUnwind() *PSError {
	items := ctx.Exec.Items()
	for i := len(items) - 1; i >= 0; i-- {
		switch items[i].Type {
		case object.LoopMark:
			ctx.Exec.Truncate(i)
			return nil
		case object.StoppedMark, object.HardReturnMark:
			return psErr(object.ErrInvalidExit, object.MakeName("exit", object.Executable))
		}
	}
	return psErr(object.ErrInvalidExit, object.MakeName("exit", object.Executable))
}

// stepLoop advances one iteration of the loop owning the marker on top
// of the execution stack.
func (ctx *Context) stepLoop(st *loopState) {
	schedule := func(args ...object.Object) bool {
		for _, a := range args {
			if err := ctx.Op.Push(a); err != nil {
				ctx.raise(wrapErr(err, st.proc))
				return false
			}
		}
		if err := ctx.Exec.Push(st.proc); err != nil {
			ctx.raise(wrapErr(err, st.proc))
			return false
		}
		return true
	}
	finish := func() { ctx.Exec.Pop() }

	switch st.kind {
	case loopPlain:
		schedule()

	case loopRepeat:
		if st.remaining <= 0 {
			finish()
			return
		}
		st.remaining--
		schedule()

	case loopFor:
		if st.isInt {
			if (st.incrI > 0 && st.ctrlI > st.limitI) || (st.incrI < 0 && st.ctrlI < st.limitI) {
				finish()
				return
			}
			v := st.ctrlI
			st.ctrlI += st.incrI
			schedule(object.MakeInt(v))
			return
		}
		if (st.incrF > 0 && st.ctrlF > st.limitF) || (st.incrF < 0 && st.ctrlF < st.limitF) {
			finish()
			return
		}
		v := st.ctrlF
		st.ctrlF += st.incrF
		schedule(object.MakeReal(v))

	case loopForAll:
		switch st.src.Type {
		case object.Array, object.PackedArray:
			if st.idx >= st.src.Length {
				finish()
				return
			}
			elem, _ := ctx.VM.ArrayGet(st.src, st.idx)
			st.idx++
			schedule(elem)
		case object.String:
			if st.idx >= st.src.Length {
				finish()
				return
			}
			b, _ := ctx.VM.StringGet(st.src, st.idx)
			st.idx++
			schedule(object.MakeInt(b))
		case object.Dict:
			if st.idx >= len(st.pairs) {
				finish()
				return
			}
			p := st.pairs[st.idx]
			st.idx++
			schedule(p[0], p[1])
		default:
			finish()
		}

	case loopPathForAll:
		if st.idx >= len(st.segs) {
			finish()
			return
		}
		seg := st.segs[st.idx]
		st.idx++
		num := func(v float64) object.Object { return object.MakeReal(v) }
		switch seg.Kind {
		case graphics.SegMove:
			x, y := st.ictm.Apply(seg.X1, seg.Y1)
			pushProcWithArgs(ctx, st.mv, num(x), num(y))
		case graphics.SegLine:
			x, y := st.ictm.Apply(seg.X1, seg.Y1)
			pushProcWithArgs(ctx, st.ln, num(x), num(y))
		case graphics.SegCurve:
			x1, y1 := st.ictm.Apply(seg.X1, seg.Y1)
			x2, y2 := st.ictm.Apply(seg.X2, seg.Y2)
			x3, y3 := st.ictm.Apply(seg.X3, seg.Y3)
			pushProcWithArgs(ctx, st.cv, num(x1), num(y1), num(x2), num(y2), num(x3), num(y3))
		case graphics.SegClose:
			pushProcWithArgs(ctx, st.cl)
		}

	case loopFileNameForAll:
		if st.idx >= len(st.names) {
			finish()
			return
		}
		name := st.names[st.idx]
		st.idx++
		if len(name) > st.scratch.Length {
			finish()
			ctx.raise(psErr(object.ErrRangeCheck, st.proc))
			return
		}
		if err := ctx.VM.StringWriteBytes(st.scratch, []byte(name)); err != nil {
			finish()
			ctx.raise(wrapErr(err, st.proc))
			return
		}
		sub, _ := object.StringInterval(st.scratch, 0, len(name))
		schedule(sub)

	case loopKshow:
		// Paint the current glyph; between adjacent glyphs the
		// procedure sees both codes.
		if st.idx+1 >= len(st.str) {
			if st.idx < len(st.str) {
				if err := ctx.paintChar(rune(st.str[st.idx])); err != nil {
					finish()
					ctx.raise(err)
					return
				}
				st.idx++
				return
			}
			finish()
			return
		}
		a := st.str[st.idx]
		b := st.str[st.idx+1]
		if err := ctx.paintChar(rune(a)); err != nil {
			finish()
			ctx.raise(err)
			return
		}
		st.idx++
		schedule(object.MakeInt(int64(a)), object.MakeInt(int64(b)))

	case loopCshow:
		if st.idx >= len(st.str) {
			finish()
			return
		}
		c := st.str[st.idx]
		st.idx++
		wx, wy := ctx.charWidth(rune(c))
		schedule(object.MakeInt(int64(c)), object.MakeReal(wx), object.MakeReal(wy))
	}
}

func pushProcWithArgs(ctx *Context, proc object.Object, args ...object.Object) {
	for _, a := range args {
		if err := ctx.Op.Push(a); err != nil {
			ctx.raise(wrapErr(err, proc))
			return
		}
	}
	if proc.Type == object.Array || proc.Type == object.PackedArray || proc.Attrib == object.Executable {
		if err := ctx.Exec.Push(proc); err != nil {
			ctx.raise(wrapErr(err, proc))
		}
	}
}

type tokenState struct {
	tkn *parser.Tokenizer
}

// evalProc runs a procedure with numeric arguments and collects nout
// numeric results; the color engine uses it for tint transforms and CIE
// decode procedures.
func (ctx *Context) evalProc(proc object.Object, in []float64, nout int) ([]float64, error) {
	for _, v := range in {
		if err := ctx.Op.Push(object.MakeReal(v)); err != nil {
			return nil, wrapErr(err, proc)
		}
	}
	base := ctx.Exec.Depth()
	if err := ctx.Exec.Push(hardReturnMarker()); err != nil {
		return nil, wrapErr(err, proc)
	}
	if err := ctx.Exec.Push(proc); err != nil {
		return nil, wrapErr(err, proc)
	}
	savedAbort := ctx.jobAborted
	ctx.jobAborted = false
	ctx.runUntil(base)
	aborted := ctx.jobAborted
	ctx.jobAborted = savedAbort
	if aborted {
		ctx.VM.DictPutName(ctx.DollarErr, "newerror", object.MakeBool(false))
		return nil, psErr(object.ErrUndefinedResult, proc)
	}
	out := make([]float64, nout)
	for i := nout - 1; i >= 0; i-- {
		v, err := ctx.Op.Pop()
		if err != nil {
			return nil, wrapErr(err, proc)
		}
		if !v.IsNumber() {
			return nil, psErr(object.ErrTypeCheck, v)
		}
		out[i] = v.Number()
	}
	return out, nil
}
