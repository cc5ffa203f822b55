package interp

import (
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/postforge/postforge/object"
)

// PSError is an in-band PostScript error: the PLRM error name plus the
// offending object. Operators return it instead of panicking; the
// engine converts it into the errordict protocol.
type PSError struct {
	Name object.Err
	Cmd  object.Object
}

func (e *PSError) Error() string {
	return fmt.Sprintf("%s in %s", string(e.Name), e.Cmd.Format())
}

func psErr(name object.Err, cmd object.Object) *PSError {
	return &PSError{Name: name, Cmd: cmd}
}

// wrapErr converts a container/stack error into a PSError against cmd.
func wrapErr(err error, cmd object.Object) *PSError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PSError); ok {
		return pe
	}
	if oe, ok := err.(object.Err); ok {
		return psErr(oe, cmd)
	}
	return psErr(object.ErrIOError, cmd)
}

// errorNames is the full PLRM taxonomy; every entry gets a default
// errordict procedure.
var errorNames = []object.Err{
	object.ErrStackUnderflow,
	object.ErrStackOverflow,
	object.ErrDictStackUnderflow,
	object.ErrDictStackOverflow,
	object.ErrExecStackOverflow,
	object.ErrTypeCheck,
	object.ErrRangeCheck,
	object.ErrInvalidAccess,
	object.ErrInvalidExit,
	object.ErrInvalidRestore,
	object.ErrInvalidFileAccess,
	object.ErrInvalidFont,
	object.ErrUndefined,
	object.ErrUndefinedFilename,
	object.ErrUndefinedResource,
	object.ErrUndefinedResult,
	object.ErrUnmatchedMark,
	object.ErrUnregistered,
	object.ErrSyntaxError,
	object.ErrIOError,
	object.ErrLimitCheck,
	object.ErrVMError,
	object.ErrDictFull,
	object.ErrNoCurrentPoint,
	object.ErrTimeout,
	object.ErrInterrupt,
	object.ErrConfigurationError,
}

// installErrorDict fills errordict with default handlers. The default
// handler records $error and unwinds with stop; handleerror prints the
// report.
func (ctx *Context) installErrorDict() {
	for _, name := range errorNames {
		n := name
		op := object.MakeOperator("."+string(n), OpFunc(func(c *Context) *PSError {
			c.stopUnwind(true)
			return nil
		}))
		ctx.VM.DictPutName(ctx.ErrorDict, string(n), op)
	}
	ctx.VM.DictPutName(ctx.ErrorDict, "handleerror",
		object.MakeOperator("handleerror", OpFunc(opHandleError)))
}

// raise runs the PLRM error protocol: push the offending object, record
// $error, and transfer control to the errordict procedure.
func (ctx *Context) raise(e *PSError) {
	ctx.historyPaused = true
	defer func() { ctx.historyPaused = false }()

	ctx.Op.Push(e.Cmd)
	ctx.populateDollarError(e)
	proc, ok := ctx.VM.DictGetName(ctx.ErrorDict, string(e.Name))
	if !ok {
		ctx.stopUnwind(true)
		return
	}
	if err := ctx.Exec.Push(proc); err != nil {
		ctx.stopUnwind(true)
	}
}

func (ctx *Context) populateDollarError(e *PSError) {
	vm := ctx.VM
	vm.DictPutName(ctx.DollarErr, "newerror", object.MakeBool(true))
	vm.DictPutName(ctx.DollarErr, "errorname", object.MakeName(string(e.Name), object.Literal))
	vm.DictPutName(ctx.DollarErr, "command", e.Cmd)
	vm.DictPutName(ctx.DollarErr, "errorinfo", object.MakeNull())
	if rec, ok := vm.DictGetName(ctx.DollarErr, "recordstacks"); !ok || !rec.BoolVal {
		return
	}
	vm.DictPutName(ctx.DollarErr, "ostackarray", vm.NewArrayFrom(ctx.Op.Items()))
	vm.DictPutName(ctx.DollarErr, "estackarray", vm.NewArrayFrom(ctx.Exec.Items()))
	vm.DictPutName(ctx.DollarErr, "dstackarray", vm.NewArrayFrom(ctx.Dicts.Items()))
}

// opHandleError prints the PLRM error report and clears newerror.
func opHandleError(ctx *Context) *PSError {
	vm := ctx.VM
	newerr, _ := vm.DictGetName(ctx.DollarErr, "newerror")
	if !newerr.BoolVal {
		return nil
	}
	name, _ := vm.DictGetName(ctx.DollarErr, "errorname")
	cmd, _ := vm.DictGetName(ctx.DollarErr, "command")
	fmt.Fprintf(ctx.Stderr(), "%%%%[ Error: %s; OffendingCommand: %s ]%%%%\n",
		name.NameVal, cmd.Format())
	if ctx.execHistory && len(ctx.history) > 0 {
		ctx.dumpHistory()
	}
	vm.DictPutName(ctx.DollarErr, "newerror", object.MakeBool(false))
	return nil
}

// dumpHistory renders the dispatch ring for post-mortem reading.
func (ctx *Context) dumpHistory() {
	printer := pp.New()
	printer.SetOutput(ctx.Stderr())
	printer.SetColoringEnabled(false)
	trace := make([]string, 0, len(ctx.history))
	for _, o := range ctx.history {
		trace = append(trace, o.Format())
	}
	fmt.Fprintln(ctx.Stderr(), "%%[ ExecutionHistory ]%%")
	printer.Println(trace)
}
