package interp

import (
	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func registerDeviceOps(def defFunc) {
	def("showpage", opShowPage)
	def("copypage", opCopyPage)
	def("setpagedevice", opSetPageDevice)
	def("currentpagedevice", opCurrentPageDevice)
	def("nulldevice", opNullDevice)
}

func (ctx *Context) pageInfo() device.PageInfo {
	return device.DecodePage(ctx.VM, ctx.GS.PageDevice)
}

// resolveDevice finds the output device named by /OutputDevice.
func (ctx *Context) resolveDevice() (device.Device, *PSError) {
	name := "dump"
	if v, ok := ctx.VM.DictGetName(ctx.GS.PageDevice, "OutputDevice"); ok && v.Type == object.Name {
		name = v.NameVal
	}
	d, ok := ctx.Devices.Lookup(name)
	if !ok {
		return nil, psErr(object.ErrUndefined, object.MakeName(name, object.Literal))
	}
	return d, nil
}

// runPageProc executes an optional page-device procedure (BeginPage,
// EndPage, Install) with the page count as operand.
func (ctx *Context) runPageProc(key string, arg object.Object, wantBool bool) (bool, *PSError) {
	proc, ok := ctx.VM.DictGetName(ctx.GS.PageDevice, key)
	if !ok || !isProc(proc) {
		return true, nil
	}
	if arg.Type != object.Null {
		if err := ctx.Op.Push(arg); err != nil {
			return false, wrapErr(err, proc)
		}
	}
	base := ctx.Exec.Depth()
	ctx.Exec.Push(hardReturnMarker())
	ctx.Exec.Push(proc)
	ctx.runUntil(base)
	if !wantBool {
		return true, nil
	}
	v, err := ctx.Op.Pop()
	if err != nil || v.Type != object.Bool {
		return true, nil
	}
	return v.BoolVal, nil
}

func opShowPage(ctx *Context) *PSError {
	ctx.pageCount++
	ctx.VM.DictPutName(ctx.GS.PageDevice, "PageCount", object.MakeInt(int64(ctx.pageCount)))
	ctx.DL.Append(graphics.ErasePage{})

	// EndPage decides whether the page is actually emitted; reason 0 is
	// a showpage handoff.
	emit, perr := ctx.runPageProc("EndPage", object.MakeInt(0), true)
	if perr != nil {
		return perr
	}
	if emit {
		dev, derr := ctx.resolveDevice()
		if derr != nil {
			return derr
		}
		if err := dev.ShowPage(ctx.VM, ctx.DL, ctx.GS.PageDevice); err != nil {
			ctx.logger.Error("device showpage failed", "device", dev.Name(), "error", err)
			return fail(object.ErrIOError)
		}
	}
	ctx.DL.Reset()

	pd := ctx.GS.PageDevice
	ctx.GS = graphics.NewState()
	ctx.GS.PageDevice = pd
	ctx.GS.ClipVersion = ctx.nextClipVersion()
	_, perr = ctx.runPageProc("BeginPage", object.MakeInt(int64(ctx.pageCount)), false)
	return perr
}

// copypage hands the list off but keeps both list and state.
func opCopyPage(ctx *Context) *PSError {
	dev, derr := ctx.resolveDevice()
	if derr != nil {
		return derr
	}
	if err := dev.ShowPage(ctx.VM, ctx.DL, ctx.GS.PageDevice); err != nil {
		ctx.logger.Error("device copypage failed", "device", dev.Name(), "error", err)
		return fail(object.ErrIOError)
	}
	return nil
}

func opSetPageDevice(ctx *Context) *PSError {
	req, err := ctx.peekType(0, object.Dict)
	if err != nil {
		return err
	}
	// Merge the request into a copy of the current page device.
	merged := ctx.VM.NewDict(ctx.VM.DictLength(ctx.GS.PageDevice) + ctx.VM.DictLength(req))
	if e := ctx.VM.DictCopyInto(ctx.GS.PageDevice, merged); e != nil {
		return wrapErr(e, req)
	}
	if e := ctx.VM.DictCopyInto(req, merged); e != nil {
		return wrapErr(e, req)
	}
	ctx.VM.DictPutName(merged, ".IsPageDevice", object.MakeBool(true))
	if ps, ok := ctx.VM.DictGetName(merged, "PageSize"); ok {
		ctx.VM.DictPutName(merged, "MediaSize", ps)
	}
	ctx.Op.Pop()
	ctx.GS.PageDevice = merged
	_, perr := ctx.runPageProc("Install", object.MakeNull(), false)
	return perr
}

func opCurrentPageDevice(ctx *Context) *PSError {
	return ctx.pushAll(ctx.GS.PageDevice)
}

// nulldevice routes output to the device registered as "null"; showpage
// raises undefined when no device of that name is registered.
func opNullDevice(ctx *Context) *PSError {
	pd := ctx.VM.NewDict(4)
	ctx.VM.DictPutName(pd, "OutputDevice", object.MakeName("null", object.Literal))
	ctx.VM.DictPutName(pd, ".IsPageDevice", object.MakeBool(false))
	ctx.GS.PageDevice = pd
	ctx.GS.SetCTM(graphics.Identity())
	ctx.GS.InitClip(ctx.nextClipVersion())
	return nil
}
