// Package interp implements the PostScript virtual machine: the
// execution engine, the operator registry, name resolution, the error
// protocol, and the job server.
package interp

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

// Default stack capacities (user-adjustable via setuserparams).
const (
	DefaultMaxOpStack   = 500
	DefaultMaxExecStack = 250
	DefaultMaxDictStack = 250

	defaultHistorySize = 20
	pumpInterval       = 10000
)

// FileHandle is the out-of-band payload of a File object. OS streams
// stay outside the VM so save/restore never snapshots a descriptor;
// File objects carry only the registry key.
type FileHandle struct {
	Name   string
	R      io.Reader
	W      io.Writer
	Open   bool
	EOF    bool
	tok    *tokenState
	onDisk *os.File
}

// Options configures a new Context.
type Options struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Devices *device.Registry

	// Pump is invoked about every ten thousand engine iterations; the
	// interactive front end uses it to drain its event loop. It must
	// not call back into the interpreter.
	Pump func()
}

// Context is the per-interpreter state handle. Everything the engine
// touches hangs off it; there is no package-level mutable state.
type Context struct {
	VM *object.VM

	Op    *object.Stack
	Exec  *object.Stack
	Dicts *object.Stack

	GS     *graphics.State
	GStack []*graphics.State
	DL     *graphics.DisplayList

	SystemDict object.Object
	GlobalDict object.Object
	UserDict   object.Object
	ErrorDict  object.Object
	DollarErr  object.Object
	ServerDict object.Object
	StatusDict object.Object

	Devices *device.Registry

	// Job bookkeeping: one record per active job. A Null save marks an
	// unencapsulated job.
	jobRecords []jobRecord

	// System parameters.
	startJobPassword string
	maxFontCache     int64

	// User parameters.
	execHistory     bool
	execHistorySize int
	history         []object.Object
	historyPaused   bool

	files    map[int]*FileHandle
	nextFile int

	resources map[string]object.Object // category name -> instance dict

	packing     bool
	clipCounter int
	pageCount   int
	fontCounter int
	rngState    int64
	startTime   time.Time

	pump        func()
	iterations  int
	interrupted atomic.Bool
	jobAborted  bool

	logger *slog.Logger
}

// New builds a Context with systemdict populated and the initial
// dictionary stack [systemdict, globaldict, userdict].
func New(opts Options) *Context {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Devices == nil {
		opts.Devices = device.NewRegistry()
	}

	ctx := &Context{
		VM:              object.NewVM(),
		Op:              object.NewStack(DefaultMaxOpStack, object.ErrStackOverflow),
		Exec:            object.NewStack(DefaultMaxExecStack, object.ErrExecStackOverflow),
		Dicts:           object.NewStack(DefaultMaxDictStack, object.ErrDictStackOverflow),
		GS:              graphics.NewState(),
		DL:              &graphics.DisplayList{},
		Devices:         opts.Devices,
		execHistorySize: defaultHistorySize,
		files:           map[int]*FileHandle{},
		resources:       map[string]object.Object{},
		pump:            opts.Pump,
		rngState:        1,
		startTime:       time.Now(),
		logger:          slog.Default(),
	}

	ctx.files[0] = &FileHandle{Name: "%stdin", R: opts.Stdin, Open: true}
	ctx.files[1] = &FileHandle{Name: "%stdout", W: opts.Stdout, Open: true}
	ctx.files[2] = &FileHandle{Name: "%stderr", W: opts.Stderr, Open: true}
	ctx.nextFile = 3

	// Shared dictionaries live in global VM.
	ctx.VM.AllocGlobal = true
	ctx.SystemDict = ctx.VM.NewDict(512)
	ctx.GlobalDict = ctx.VM.NewDict(32)
	ctx.ErrorDict = ctx.VM.NewDict(40)
	ctx.DollarErr = ctx.VM.NewDict(16)
	ctx.ServerDict = ctx.VM.NewDict(8)
	ctx.StatusDict = ctx.VM.NewDict(16)
	ctx.registerOperators()
	ctx.installErrorDict()
	ctx.initPageDevice()
	ctx.VM.AllocGlobal = false

	ctx.UserDict = ctx.VM.NewDict(200)

	sd := ctx.SystemDict
	ctx.VM.DictPutName(sd, "systemdict", sd)
	ctx.VM.DictPutName(sd, "globaldict", ctx.GlobalDict)
	ctx.VM.DictPutName(sd, "userdict", ctx.UserDict)
	ctx.VM.DictPutName(sd, "errordict", ctx.ErrorDict)
	ctx.VM.DictPutName(sd, "$error", ctx.DollarErr)
	ctx.VM.DictPutName(sd, "serverdict", ctx.ServerDict)
	ctx.VM.DictPutName(sd, "statusdict", ctx.StatusDict)
	ctx.VM.DictPutName(ctx.DollarErr, "newerror", object.MakeBool(false))
	ctx.VM.DictPutName(ctx.DollarErr, "recordstacks", object.MakeBool(true))
	if exit, ok := ctx.VM.DictGetName(sd, "exitserver"); ok {
		ctx.VM.DictPutName(ctx.ServerDict, "exitserver", exit)
	}

	ctx.resetDictStack()
	sysRO := ctx.SystemDict
	sysRO.Access = object.ReadOnly
	ctx.SystemDict = sysRO
	ctx.Dicts.Replace(ctx.Dicts.Depth()-1, sysRO)
	ctx.VM.DictPutName(ctx.GlobalDict, "systemdict", sysRO)

	return ctx
}

// resetDictStack reinstates [systemdict, globaldict, userdict].
func (ctx *Context) resetDictStack() {
	ctx.Dicts.Clear()
	ctx.Dicts.Push(ctx.SystemDict)
	ctx.Dicts.Push(ctx.GlobalDict)
	ctx.Dicts.Push(ctx.UserDict)
}

// Interrupt injects an interrupt error at the top of the engine loop;
// safe to call from another goroutine.
func (ctx *Context) Interrupt() {
	ctx.interrupted.Store(true)
}

// Stdout returns the writer behind %stdout.
func (ctx *Context) Stdout() io.Writer { return ctx.files[1].W }

// Stderr returns the writer behind %stderr.
func (ctx *Context) Stderr() io.Writer { return ctx.files[2].W }

func (ctx *Context) newFile(h *FileHandle) object.Object {
	id := ctx.nextFile
	ctx.nextFile++
	ctx.files[id] = h
	return object.Object{
		Type:   object.File,
		Attrib: object.Literal,
		Access: object.Unlimited,
		Slot:   id,
	}
}

func (ctx *Context) fileHandle(o object.Object) (*FileHandle, bool) {
	h, ok := ctx.files[o.Slot]
	return h, ok
}

// stdFile returns the proxy object for a %-name standard stream.
func (ctx *Context) stdFile(name string) (object.Object, bool) {
	var id int
	switch name {
	case "%stdin":
		id = 0
	case "%stdout":
		id = 1
	case "%stderr":
		id = 2
	default:
		return object.Object{}, false
	}
	o := object.Object{Type: object.File, Access: object.Unlimited, Slot: id}
	if id == 0 {
		o.Attrib = object.Executable
	}
	return o, true
}

// initPageDevice installs the default page-device dictionary.
func (ctx *Context) initPageDevice() {
	pd := ctx.VM.NewDict(20)
	size := ctx.VM.NewArrayFrom([]object.Object{object.MakeReal(612), object.MakeReal(792)})
	res := ctx.VM.NewArrayFrom([]object.Object{object.MakeReal(72), object.MakeReal(72)})
	ctx.VM.DictPutName(pd, "PageSize", size)
	ctx.VM.DictPutName(pd, "MediaSize", size)
	ctx.VM.DictPutName(pd, "HWResolution", res)
	ctx.VM.DictPutName(pd, "NumCopies", object.MakeInt(1))
	ctx.VM.DictPutName(pd, "PageCount", object.MakeInt(0))
	ctx.VM.DictPutName(pd, "OutputDevice", object.MakeName("dump", object.Literal))
	ctx.VM.DictPutName(pd, "TextRenderingMode", object.MakeName("TextObjs", object.Literal))
	ctx.VM.DictPutName(pd, "StrokeMethod", object.MakeName("Stroke", object.Literal))
	ctx.VM.DictPutName(pd, ".IsPageDevice", object.MakeBool(true))
	ctx.VM.DictPutName(pd, "LineWidthMin", object.MakeReal(0))
	ctx.GS.PageDevice = pd
}

// SeedStartJobPassword sets the startjob password ahead of the first
// job, the host-side equivalent of setsystemparams.
func (ctx *Context) SeedStartJobPassword(pw string) {
	ctx.startJobPassword = pw
}

// SetOutputDevice points /OutputDevice at a registered device name.
func (ctx *Context) SetOutputDevice(name string) {
	ctx.VM.DictPutName(ctx.GS.PageDevice, "OutputDevice", object.MakeName(name, object.Literal))
}

// SetPageDeviceKey installs one recognized page-device key.
func (ctx *Context) SetPageDeviceKey(key string, val object.Object) {
	ctx.VM.DictPutName(ctx.GS.PageDevice, key, val)
}

// nextClipVersion advances the monotone clip counter.
func (ctx *Context) nextClipVersion() int {
	ctx.clipCounter++
	return ctx.clipCounter
}

// recordHistory keeps a ring of recently dispatched objects for
// post-mortem diagnostics.
func (ctx *Context) recordHistory(o object.Object) {
	if !ctx.execHistory || ctx.historyPaused {
		return
	}
	ctx.history = append(ctx.history, o)
	if n := len(ctx.history) - ctx.execHistorySize; n > 0 {
		ctx.history = ctx.history[n:]
	}
}

// History returns the recorded dispatch ring, oldest first.
func (ctx *Context) History() []object.Object {
	return append([]object.Object(nil), ctx.history...)
}

// randNext advances the linear congruential generator behind rand;
// rrand reads its state without advancing it.
func (ctx *Context) randNext() int64 {
	ctx.rngState = (ctx.rngState*1103515245 + 12345) & 0x7FFFFFFF
	return ctx.rngState
}
