package interp

import (
	"strconv"
	"strings"

	"github.com/postforge/postforge/object"
)

func registerTypeOps(def defFunc) {
	def("type", opType)
	def("cvlit", opCvlit)
	def("cvx", opCvx)
	def("xcheck", opXcheck)
	def("executeonly", opExecuteOnly)
	def("noaccess", opNoAccess)
	def("readonly", opReadOnly)
	def("rcheck", opRcheck)
	def("wcheck", opWcheck)
	def("cvi", opCvi)
	def("cvn", opCvn)
	def("cvr", opCvr)
	def("cvs", opCvs)
	def("cvrs", opCvrs)
	def("bind", opBind)
	def("version", opVersion)
	def("languagelevel", opLanguageLevel)
}

func opType(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeName(o.Type.TypeName(), object.Executable))
}

func opCvlit(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	o.Attrib = object.Literal
	ctx.Op.Replace(0, o)
	return nil
}

func opCvx(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	o.Attrib = object.Executable
	ctx.Op.Replace(0, o)
	return nil
}

func opXcheck(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeBool(o.Attrib == object.Executable))
}

// Access can only tighten.
func tighten(ctx *Context, to object.Access) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	switch o.Type {
	case object.Array, object.PackedArray, object.String, object.Dict, object.File:
	default:
		return fail(object.ErrTypeCheck)
	}
	if o.Access < to {
		return fail(object.ErrInvalidAccess)
	}
	o.Access = to
	ctx.Op.Replace(0, o)
	return nil
}

func opExecuteOnly(ctx *Context) *PSError { return tighten(ctx, object.ExecuteOnly) }
func opNoAccess(ctx *Context) *PSError    { return tighten(ctx, object.AccessNone) }
func opReadOnly(ctx *Context) *PSError    { return tighten(ctx, object.ReadOnly) }

func opRcheck(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeBool(o.Access >= object.ReadOnly))
}

func opWcheck(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeBool(o.Access >= object.Unlimited))
}

func opCvi(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	var v float64
	switch o.Type {
	case object.Int:
		ctx.Op.Replace(0, o)
		return nil
	case object.Real:
		v = o.RealVal
	case object.String:
		if o.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(string(ctx.VM.StringBytes(o))), 64)
		if perr != nil {
			return fail(object.ErrSyntaxError)
		}
		v = parsed
	default:
		return fail(object.ErrTypeCheck)
	}
	if v > 2147483647 || v < -2147483648 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeInt(int64(v)))
}

func opCvn(ctx *Context) *PSError {
	o, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	if o.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeName(string(ctx.VM.StringBytes(o)), o.Attrib))
}

func opCvr(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	switch o.Type {
	case object.Int:
		ctx.Op.Pop()
		return ctx.pushAll(object.MakeReal(float64(o.IntVal)))
	case object.Real:
		return nil
	case object.String:
		if o.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(string(ctx.VM.StringBytes(o))), 64)
		if perr != nil {
			return fail(object.ErrSyntaxError)
		}
		ctx.Op.Pop()
		return ctx.pushAll(object.MakeReal(v))
	}
	return fail(object.ErrTypeCheck)
}

// cvsText renders a value the way cvs does.
func (ctx *Context) cvsText(o object.Object) string {
	switch o.Type {
	case object.String:
		return string(ctx.VM.StringBytes(o))
	case object.Name:
		return o.NameVal
	case object.Operator:
		return o.NameVal
	case object.Bool, object.Int, object.Real:
		return o.Format()
	default:
		return "--nostringval--"
	}
}

func opCvs(ctx *Context) *PSError {
	dst, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	src, serr := ctx.Op.Peek(1)
	if serr != nil {
		return fail(object.ErrStackUnderflow)
	}
	text := ctx.cvsText(src)
	if len(text) > dst.Length {
		return fail(object.ErrRangeCheck)
	}
	if e := ctx.VM.StringWriteBytes(dst, []byte(text)); e != nil {
		return wrapErr(e, dst)
	}
	ctx.Op.PopN(2)
	sub, _ := object.StringInterval(dst, 0, len(text))
	return ctx.pushAll(sub)
}

func opCvrs(ctx *Context) *PSError {
	dst, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	radix, e := ctx.peekInt(1)
	if e != nil {
		return e
	}
	num, e := ctx.peekNum(2)
	if e != nil {
		return e
	}
	if radix < 2 || radix > 36 {
		return fail(object.ErrRangeCheck)
	}
	var text string
	if radix == 10 {
		o, _ := ctx.Op.Peek(2)
		text = o.Format()
	} else {
		text = strings.ToUpper(strconv.FormatUint(uint64(uint32(int32(num))), int(radix)))
	}
	if len(text) > dst.Length {
		return fail(object.ErrRangeCheck)
	}
	if werr := ctx.VM.StringWriteBytes(dst, []byte(text)); werr != nil {
		return wrapErr(werr, dst)
	}
	ctx.Op.PopN(3)
	sub, _ := object.StringInterval(dst, 0, len(text))
	return ctx.pushAll(sub)
}

// opBind walks a procedure and replaces executable names currently
// bound to operators with the operators themselves, recursing into
// nested procedures. Read-only procedures are traversed but not
// rewritten.
func opBind(ctx *Context) *PSError {
	proc, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	if proc.Type != object.Array && proc.Type != object.PackedArray {
		return fail(object.ErrTypeCheck)
	}
	ctx.bindProc(proc, map[int]bool{})
	return nil
}

func (ctx *Context) bindProc(proc object.Object, seen map[int]bool) {
	if seen[proc.Slot] {
		return
	}
	seen[proc.Slot] = true
	writable := proc.Type == object.Array && proc.Access >= object.Unlimited
	for i := 0; i < proc.Length; i++ {
		elem, err := ctx.VM.ArrayGet(proc, i)
		if err != nil {
			return
		}
		switch {
		case elem.Type == object.Name && elem.Attrib == object.Executable:
			if v, ok := ctx.Lookup(elem.NameVal); ok && v.Type == object.Operator && writable {
				ctx.VM.ArrayPut(proc, i, v)
			}
		case isProc(elem):
			ctx.bindProc(elem, seen)
		}
	}
}

func opVersion(ctx *Context) *PSError {
	return ctx.pushAll(ctx.VM.NewStringFrom([]byte("3010")))
}

func opLanguageLevel(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(2))
}
